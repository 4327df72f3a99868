package agent

import "strings"

const graphPromptHeader = `From past interactions, we are aware of the following actions and targets, that are
reachable from your current location. You can use this information to guide your actions,
meaning that you can use these known paths from our NAVIGATION GRAPH to help you
decide what to do next.

Please explicitly state what you have learned from the graph, how it relates to the known
paths and how it influenced your next action suggestion.

The graph is presented you as a list of paths, where each path is described as

(state, action) -> (state, action) -> ... -> (state, action)

Try to understand which process the paths represent and if any of them can be used
to solve the current task.

Following paths are known to us:

`

// GraphPrompt 返回注入提示的导航图段落；观测中没有 grounding 时返回空串。
func GraphPrompt(obs map[string]any) string {
	text, _ := obs[GroundingKey].(string)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "## " + graphPromptHeader + text + "\n\n"
}
