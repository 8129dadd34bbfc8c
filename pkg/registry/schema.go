// pkg/registry/schema.go
package registry

// Catalog is the set of mockable upstream services keyed by service id.
type Catalog struct {
	Services map[string]Service `json:"services" yaml:"services"`
}

// Service describes one upstream and the response flavors it can mimic.
type Service struct {
	Name            string   `json:"name" yaml:"name"`
	Desc            string   `json:"desc" yaml:"desc"`
	DefaultResponse string   `json:"defaultResponse" yaml:"defaultResponse"`
	Responses       []Flavor `json:"responses" yaml:"responses"`
}

// Flavor is one canned response. Template is rendered on generate, Token on
// the mock token exchange; both are optional.
type Flavor struct {
	ID       string      `json:"id" yaml:"id"`
	Name     string      `json:"name" yaml:"name"`
	Desc     string      `json:"desc" yaml:"desc"`
	Template interface{} `json:"template,omitempty" yaml:"template,omitempty"`
	Token    interface{} `json:"token,omitempty" yaml:"token,omitempty"`
}

// Flavor returns the flavor with the given id.
func (s Service) Flavor(id string) (Flavor, bool) {
	for _, f := range s.Responses {
		if f.ID == id {
			return f, true
		}
	}
	return Flavor{}, false
}

// Flavor looks up service then flavor.
func (c *Catalog) Flavor(service, flavor string) (Flavor, bool) {
	if c == nil {
		return Flavor{}, false
	}
	svc, ok := c.Services[service]
	if !ok {
		return Flavor{}, false
	}
	return svc.Flavor(flavor)
}
