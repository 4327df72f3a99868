package navgraph

// Cypher 语句。参数名与列名是 Gateway 实现与调用方之间的约定，
// testutil/mocks 中的内存图也按这些常量解释查询。
const (
	// QueryFindPage 按 URL 模板精确查找页面节点。
	// 参数: url。列: id, url。
	QueryFindPage = `MATCH (a:URL) WHERE a.url = $url
RETURN elementId(a) AS id, a.url AS url
LIMIT 1`

	// QuerySimplePaths 枚举从页面出发、沿 ACTION 出边到其它页面的简单路径。
	// 参数: source_id, max_length, limit。列: path。
	QuerySimplePaths = `MATCH (a:URL), (b:URL)
WHERE elementId(a) = $source_id AND a <> b
CALL apoc.algo.allSimplePaths(a, b, 'ACTION>', $max_length)
YIELD path
RETURN path
LIMIT $limit`

	// QueryGoalsAtPage 返回挂在页面步骤上的目标及其最小 step_id。
	// 参数: url。列: goal_id, description, embedding, start_step_id。
	QueryGoalsAtPage = `MATCH (a:URL {url: $url})-[]-(s:STEP)-[]-(g:GOAL)
WHERE g.embedding IS NOT NULL
RETURN elementId(g) AS goal_id, g.description AS description,
       g.embedding AS embedding, min(s.step_id) AS start_step_id`

	// QueryForwardFromStep 从目标下指定 step_id 的步骤出发，枚举 ACTION 前向链。
	// 参数: goal_id, step_id。列: path。
	QueryForwardFromStep = `MATCH (g:GOAL)-[]-(s:STEP {step_id: $step_id})
WHERE elementId(g) = $goal_id
MATCH path = (s)-[:ACTION*1..]->(:STEP)
RETURN path`

	// QueryTaskGoals 返回所有带 goal 的任务节点。
	// 列: id, goal, description。
	QueryTaskGoals = `MATCH (t:Task)
WHERE t.goal IS NOT NULL
RETURN elementId(t) AS id, t.goal AS goal, t.description AS description`

	// QueryEmbeddedNodes 返回所有带 embedding 的节点。
	// 列: id, description, embedding。
	QueryEmbeddedNodes = `MATCH (n)
WHERE n.embedding IS NOT NULL
RETURN elementId(n) AS id, n.description AS description, n.embedding AS embedding`

	// QueryForwardFromNodes 对一组起点枚举不超过 max_hops 跳的前向路径。
	// 参数: ids, max_hops。列: source_id, path。
	QueryForwardFromNodes = `MATCH (t)
WHERE elementId(t) IN $ids
CALL apoc.path.expandConfig(t, {minLevel: 1, maxLevel: $max_hops, relationshipFilter: '>'})
YIELD path
RETURN elementId(t) AS source_id, path`
)

// Query parameter names.
const (
	ParamURL       = "url"
	ParamSourceID  = "source_id"
	ParamMaxLength = "max_length"
	ParamLimit     = "limit"
	ParamGoalID    = "goal_id"
	ParamStepID    = "step_id"
	ParamIDs       = "ids"
	ParamMaxHops   = "max_hops"
)

// Graph schema names.
const (
	LabelURL   = "URL"
	LabelStep  = "STEP"
	LabelGoal  = "GOAL"
	LabelTask  = "Task"
	RelAction  = "ACTION"
	PropURL    = "url"
	PropStepID = "step_id"
	PropGoal   = "goal"
	PropDesc   = "description"
	PropEmbed  = "embedding"
	PropFlows  = "flows"
	PropAction = "action"
	PropInput  = "input"
	PropTarget = "target_line"
)
