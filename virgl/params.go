// SPDX-License-Identifier: Unlicense OR MIT

package virgl

import (
	"fmt"
	"strings"

	"eliasnaur.com/virtgbm/drm"
	"eliasnaur.com/virtgbm/internal/logging"
)

// Params are the deployment parameters the kernel reports for the
// device.
type Params struct {
	// Features3D is non-zero when the host renderer supports 3D
	// resources.
	Features3D uint64
	// CapsetFix is non-zero when the kernel reports capability set
	// sizes correctly, making the extended set safe to query.
	CapsetFix    uint64
	ResourceBlob uint64
	HostVisible  uint64
	CrossDevice  uint64
	ContextInit  uint64
}

// ParamNames lists the parameter names accepted as overrides.
var ParamNames = []string{"3d", "capset_fix", "resource_blob", "host_visible", "cross_device", "context_init"}

func (p *Params) field(name string) (*uint64, uint64) {
	switch name {
	case "3d":
		return &p.Features3D, drm.PARAM_3D_FEATURES
	case "capset_fix":
		return &p.CapsetFix, drm.PARAM_CAPSET_QUERY_FIX
	case "resource_blob":
		return &p.ResourceBlob, drm.PARAM_RESOURCE_BLOB
	case "host_visible":
		return &p.HostVisible, drm.PARAM_HOST_VISIBLE
	case "cross_device":
		return &p.CrossDevice, drm.PARAM_CROSS_DEVICE
	case "context_init":
		return &p.ContextInit, drm.PARAM_CONTEXT_INIT
	}
	return nil, 0
}

// Get returns the named parameter.
func (p Params) Get(name string) (uint64, bool) {
	f, _ := p.field(name)
	if f == nil {
		return 0, false
	}
	return *f, true
}

func (p Params) String() string {
	var b strings.Builder
	for i, n := range ParamNames {
		if i > 0 {
			b.WriteByte(' ')
		}
		v, _ := p.Get(n)
		fmt.Fprintf(&b, "%s=%d", n, v)
	}
	return b.String()
}

type paramDevice interface {
	GetParam(param uint64) (uint64, error)
}

// queryParams reads every parameter from the kernel. A failing query
// leaves the parameter 0. Entries of overrides replace the kernel
// values.
func queryParams(dev paramDevice, overrides map[string]uint64) Params {
	var p Params
	for _, n := range ParamNames {
		f, id := p.field(n)
		if v, ok := overrides[n]; ok {
			*f = v
			continue
		}
		v, err := dev.GetParam(id)
		if err != nil {
			logging.Debugf("DRM_IOCTL_VIRTGPU_GETPARAM %s failed with %v", n, err)
			continue
		}
		*f = v
	}
	for n := range overrides {
		if f, _ := p.field(n); f == nil {
			logging.Warnf("virgl: ignoring unknown parameter %q", n)
		}
	}
	return p
}
