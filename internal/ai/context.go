package ai

import "context"

type agentKey struct{}

// WithAgent records which agent issues the calls made with ctx.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey{}, agent)
}

// AgentFrom returns the agent recorded by WithAgent, or "unknown".
func AgentFrom(ctx context.Context) string {
	if agent, ok := ctx.Value(agentKey{}).(string); ok && agent != "" {
		return agent
	}
	return "unknown"
}
