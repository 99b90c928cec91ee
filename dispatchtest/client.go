package dispatchtest

import "github.com/gridpulse/microgrid-dispatch/client"

// NewClient returns a client wired to a fresh in-memory service, plus the
// service itself for direct inspection. The client authenticates with
// KeyFullAccess unless an option overrides it.
func NewClient(opts ...client.Option) (*client.Client, *Service) {
	svc := NewService()
	all := append([]client.Option{client.WithKey(KeyFullAccess)}, opts...)
	return client.New(svc, all...), svc
}
