package platform

import (
	"github.com/aretw0/encyclopedia/pkg/core"
)

// New opens the entries directory at path and returns the service on top of it.
//
//	svc, err := encyclopedia.New("./entries", encyclopedia.WithVersioning(false))
func New(path string, opts ...Option) (*core.Service, error) {
	repo, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}

	o := collect(opts)
	serviceOpts := []core.ServiceOption{core.WithServiceLogger(o.logger)}
	if o.randomSource != nil {
		serviceOpts = append(serviceOpts, core.WithRandomSource(o.randomSource))
	}

	return core.NewService(repo, serviceOpts...), nil
}
