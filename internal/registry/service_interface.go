package registry

// Service is one runnable unit of the dashboard: the tracker loop, the
// device link, the host location sampler, the HTTP surface. The service
// registry starts them in dependency order and stops them in reverse.
type Service interface {
	Start() error
	Stop() error
}
