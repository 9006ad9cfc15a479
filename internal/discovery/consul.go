// Package discovery registers long running meteorsim processes with a
// Consul agent so their metrics endpoints can be found.
package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/consul/api"
)

type Registry struct {
	client *api.Client
}

// NewRegistry connects to the Consul agent at addr (host:port).
func NewRegistry(addr string) (*Registry, error) {
	cfg := api.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Registry{client: client}, nil
}

// Registration describes a service instance with an HTTP health check.
func Registration(id, name, host string, port int, healthURL string) *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: host,
		Port:    port,
		Tags:    []string{"metrics"},
		Check: &api.AgentServiceCheck{
			HTTP:                           healthURL,
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

func (r *Registry) Register(reg *api.AgentServiceRegistration) error {
	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("register %s: %w", reg.ID, err)
	}
	return nil
}

func (r *Registry) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregister %s: %w", id, err)
	}
	return nil
}

// InstanceID names one process of a service.
func InstanceID(service string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s-%s-%d", service, host, os.Getpid())
}
