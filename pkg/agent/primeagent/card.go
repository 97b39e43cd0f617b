package primeagent

import (
	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

// Card defaults.
const (
	AgentName        = "Prime Number Agent"
	AgentDescription = "A simple agent that generates a prime number."
	AgentVersion     = "0.1.0"
	SkillID          = "generate-prime"
)

// NewAgentCard describes the prime agent served at url.
func NewAgentCard(url string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               AgentName,
		Description:        AgentDescription,
		ProtocolVersion:    a2a.ProtocolVersion,
		Version:            AgentVersion,
		URL:                url,
		PreferredTransport: a2a.TransportJSONRPC,
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []a2a.AgentSkill{
			{
				ID:          SkillID,
				Name:        "Generate Prime",
				Description: "Generate a prime number",
				Tags:        []string{"math"},
				Examples:    []string{"Give me a prime number"},
			},
		},
	}
}
