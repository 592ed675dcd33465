package routing

import (
	"testing"

	"github.com/vasyanch/memcload/internal/domain"
)

func TestStaticRouterEndpoint(t *testing.T) {
	r := NewStaticRouter(domain.DeviceRouting{
		"idfa": "127.0.0.1:33013",
		"gaid": "127.0.0.1:33014",
	})

	endpoint, err := r.Endpoint("idfa")
	if err != nil || endpoint != "127.0.0.1:33013" {
		t.Fatalf("got endpoint=%q err=%v", endpoint, err)
	}

	if len(r.ListDeviceTypes()) != 2 {
		t.Fatalf("ListDeviceTypes = %v", r.ListDeviceTypes())
	}
}

func TestStaticRouterUnknownDeviceType(t *testing.T) {
	r := NewStaticRouter(domain.DeviceRouting{"idfa": "127.0.0.1:33013"})
	if _, err := r.Endpoint("xxxx"); err == nil {
		t.Fatal("expected an error for an unregistered device type")
	}
}
