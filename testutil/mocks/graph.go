// MemoryGraph 是 navgraph.Gateway 的内存实现。
//
// 它按 navgraph 中的查询常量解释语句，以与 Neo4j/APOC 相同的语义枚举路径，
// 并支持错误注入与调用记录。
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/types"
)

// ErrUnsupportedQuery 表示 MemoryGraph 无法解释的语句。
var ErrUnsupportedQuery = errors.New("mocks: unsupported query")

// GraphCall 记录单次 Gateway 调用
type GraphCall struct {
	Method string
	Query  string
	Params map[string]any
}

// MemoryGraph 内存导航图
type MemoryGraph struct {
	mu sync.RWMutex

	nodes     map[string]*navgraph.Node
	nodeOrder []string
	rels      map[string]*navgraph.Relationship
	outRels   map[string][]string // nodeID -> relIDs
	inRels    map[string][]string // nodeID -> relIDs

	err         error
	queryErrors map[string]error

	calls      []GraphCall
	closeCount int
	closed     bool
}

// NewMemoryGraph 创建空的内存图
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{
		nodes:       make(map[string]*navgraph.Node),
		rels:        make(map[string]*navgraph.Relationship),
		outRels:     make(map[string][]string),
		inRels:      make(map[string][]string),
		queryErrors: make(map[string]error),
	}
}

// --- Builder 方法 ---

// AddNode 添加节点
func (g *MemoryGraph) AddNode(id string, labels []string, props map[string]any) *MemoryGraph {
	g.mu.Lock()
	defer g.mu.Unlock()
	if props == nil {
		props = map[string]any{}
	}
	if _, ok := g.nodes[id]; !ok {
		g.nodeOrder = append(g.nodeOrder, id)
	}
	g.nodes[id] = &navgraph.Node{ID: id, Labels: labels, Properties: props}
	return g
}

// AddPage 添加 URL 页面节点
func (g *MemoryGraph) AddPage(id, url string) *MemoryGraph {
	return g.AddNode(id, []string{navgraph.LabelURL}, map[string]any{navgraph.PropURL: url})
}

// AddStep 添加 STEP 节点
func (g *MemoryGraph) AddStep(id string, stepID int64, description string) *MemoryGraph {
	return g.AddNode(id, []string{navgraph.LabelStep}, map[string]any{
		navgraph.PropStepID: stepID,
		navgraph.PropDesc:   description,
	})
}

// AddGoal 添加 GOAL 节点
func (g *MemoryGraph) AddGoal(id, description string, embedding []float64) *MemoryGraph {
	return g.AddNode(id, []string{navgraph.LabelGoal}, map[string]any{
		navgraph.PropDesc:  description,
		navgraph.PropEmbed: embedding,
	})
}

// AddTask 添加 Task 节点
func (g *MemoryGraph) AddTask(id, goal, description string) *MemoryGraph {
	return g.AddNode(id, []string{navgraph.LabelTask}, map[string]any{
		navgraph.PropGoal: goal,
		navgraph.PropDesc: description,
	})
}

// AddRelationship 添加有向边
func (g *MemoryGraph) AddRelationship(id, relType, start, end string, props map[string]any) *MemoryGraph {
	g.mu.Lock()
	defer g.mu.Unlock()
	if props == nil {
		props = map[string]any{}
	}
	g.rels[id] = &navgraph.Relationship{ID: id, Type: relType, StartID: start, EndID: end, Properties: props}
	g.outRels[start] = append(g.outRels[start], id)
	g.inRels[end] = append(g.inRels[end], id)
	return g
}

// AddAction 添加 ACTION 边
func (g *MemoryGraph) AddAction(id, start, end, action, target string) *MemoryGraph {
	return g.AddRelationship(id, navgraph.RelAction, start, end, map[string]any{
		navgraph.PropAction: action,
		navgraph.PropTarget: target,
	})
}

// WithError 让所有调用返回 err
func (g *MemoryGraph) WithError(err error) *MemoryGraph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
	return g
}

// WithQueryError 让指定语句返回 err
func (g *MemoryGraph) WithQueryError(query string, err error) *MemoryGraph {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryErrors[query] = err
	return g
}

// --- 调用记录 ---

// Calls 返回调用记录的副本
func (g *MemoryGraph) Calls() []GraphCall {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]GraphCall(nil), g.calls...)
}

// CallsTo 返回执行指定语句的次数
func (g *MemoryGraph) CallsTo(query string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, c := range g.calls {
		if c.Query == query {
			n++
		}
	}
	return n
}

// CloseCount 返回 Close 的调用次数
func (g *MemoryGraph) CloseCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closeCount
}

// --- navgraph.Gateway 实现 ---

// FindPage implements navgraph.Gateway.
func (g *MemoryGraph) FindPage(ctx context.Context, url string) (*navgraph.PageNode, error) {
	rows, err := g.RunStatement(ctx, navgraph.QueryFindPage, map[string]any{navgraph.ParamURL: url})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.NewNotFoundError("no page node for url %q", url)
	}
	return &navgraph.PageNode{ID: navgraph.String(rows[0]["id"]), URL: navgraph.String(rows[0]["url"])}, nil
}

// FindPageNodeID implements navgraph.Gateway.
func (g *MemoryGraph) FindPageNodeID(ctx context.Context, url string) (string, error) {
	page, err := g.FindPage(ctx, url)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// RunPathQuery implements navgraph.Gateway.
func (g *MemoryGraph) RunPathQuery(ctx context.Context, query string, params map[string]any) ([]navgraph.PathRecord, error) {
	if err := g.begin(ctx, "RunPathQuery", query, params); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch query {
	case navgraph.QuerySimplePaths:
		return g.simplePaths(params), nil
	case navgraph.QueryForwardFromStep:
		return g.forwardFromStep(params), nil
	case navgraph.QueryForwardFromNodes:
		return g.forwardFromNodes(params), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuery, query)
	}
}

// RunStatement implements navgraph.Gateway.
func (g *MemoryGraph) RunStatement(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if err := g.begin(ctx, "RunStatement", statement, params); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	switch statement {
	case navgraph.QueryFindPage:
		return g.findPage(params), nil
	case navgraph.QueryGoalsAtPage:
		return g.goalsAtPage(params), nil
	case navgraph.QueryTaskGoals:
		return g.taskGoals(), nil
	case navgraph.QueryEmbeddedNodes:
		return g.embeddedNodes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuery, statement)
	}
}

// Close implements navgraph.Gateway.
func (g *MemoryGraph) Close(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeCount++
	g.closed = true
	return nil
}

func (g *MemoryGraph) begin(ctx context.Context, method, query string, params map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, GraphCall{Method: method, Query: query, Params: params})

	if err := ctx.Err(); err != nil {
		return types.NewGraphUnavailableError("context done", err)
	}
	if g.closed {
		return types.NewGraphUnavailableError("graph gateway is closed", nil)
	}
	if err := g.queryErrors[query]; err != nil {
		return err
	}
	return g.err
}

// =============================================================================
// 语句解释
// =============================================================================

func (g *MemoryGraph) findPage(params map[string]any) []map[string]any {
	url := navgraph.String(params[navgraph.ParamURL])
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.HasLabel(navgraph.LabelURL) && n.String(navgraph.PropURL) == url {
			return []map[string]any{{"id": n.ID, "url": url}}
		}
	}
	return nil
}

func (g *MemoryGraph) goalsAtPage(params map[string]any) []map[string]any {
	url := navgraph.String(params[navgraph.ParamURL])

	type agg struct {
		goal    *navgraph.Node
		minStep int64
	}
	var order []string
	goals := map[string]*agg{}

	for _, id := range g.nodeOrder {
		page := g.nodes[id]
		if !page.HasLabel(navgraph.LabelURL) || page.String(navgraph.PropURL) != url {
			continue
		}
		for _, stepID := range g.neighbors(page.ID) {
			step := g.nodes[stepID]
			if !step.HasLabel(navgraph.LabelStep) {
				continue
			}
			sid, ok := navgraph.Int64(step.Properties[navgraph.PropStepID])
			if !ok {
				continue
			}
			for _, goalID := range g.neighbors(step.ID) {
				goal := g.nodes[goalID]
				if !goal.HasLabel(navgraph.LabelGoal) || goal.Properties[navgraph.PropEmbed] == nil {
					continue
				}
				a, ok := goals[goalID]
				if !ok {
					a = &agg{goal: goal, minStep: sid}
					goals[goalID] = a
					order = append(order, goalID)
				}
				if sid < a.minStep {
					a.minStep = sid
				}
			}
		}
	}

	rows := make([]map[string]any, 0, len(order))
	for _, id := range order {
		a := goals[id]
		rows = append(rows, map[string]any{
			"goal_id":       a.goal.ID,
			"description":   a.goal.Properties[navgraph.PropDesc],
			"embedding":     a.goal.Properties[navgraph.PropEmbed],
			"start_step_id": a.minStep,
		})
	}
	return rows
}

func (g *MemoryGraph) taskGoals() []map[string]any {
	var rows []map[string]any
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if !n.HasLabel(navgraph.LabelTask) || n.Properties[navgraph.PropGoal] == nil {
			continue
		}
		rows = append(rows, map[string]any{
			"id":          n.ID,
			"goal":        n.Properties[navgraph.PropGoal],
			"description": n.Properties[navgraph.PropDesc],
		})
	}
	return rows
}

func (g *MemoryGraph) embeddedNodes() []map[string]any {
	var rows []map[string]any
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.Properties[navgraph.PropEmbed] == nil {
			continue
		}
		rows = append(rows, map[string]any{
			"id":          n.ID,
			"description": n.Properties[navgraph.PropDesc],
			"embedding":   n.Properties[navgraph.PropEmbed],
		})
	}
	return rows
}

// =============================================================================
// 路径枚举
// =============================================================================

// simplePaths 对应 apoc.algo.allSimplePaths：节点不重复，沿 ACTION 出边，
// 终点是除起点外的任意 URL 节点。
func (g *MemoryGraph) simplePaths(params map[string]any) []navgraph.PathRecord {
	src := navgraph.String(params[navgraph.ParamSourceID])
	maxLen, _ := navgraph.Int64(params[navgraph.ParamMaxLength])
	limit, hasLimit := navgraph.Int64(params[navgraph.ParamLimit])

	start, ok := g.nodes[src]
	if !ok || !start.HasLabel(navgraph.LabelURL) {
		return nil
	}

	var out []navgraph.PathRecord
	visited := map[string]bool{src: true}
	var walk func(p navgraph.Path)
	walk = func(p navgraph.Path) {
		if hasLimit && int64(len(out)) >= limit {
			return
		}
		if p.Len() > 0 {
			end, _ := p.End()
			if end.HasLabel(navgraph.LabelURL) {
				out = append(out, navgraph.PathRecord{Path: clonePath(p), Values: map[string]any{}})
			}
		}
		if int64(p.Len()) >= maxLen {
			return
		}
		end, _ := p.End()
		for _, relID := range g.outRels[end.ID] {
			rel := g.rels[relID]
			if rel.Type != navgraph.RelAction || visited[rel.EndID] || g.nodes[rel.EndID] == nil {
				continue
			}
			visited[rel.EndID] = true
			walk(extend(p, *rel, *g.nodes[rel.EndID]))
			visited[rel.EndID] = false
		}
	}
	walk(navgraph.Path{Nodes: []navgraph.Node{*start}})
	return out
}

// forwardFromStep 对应 (s)-[:ACTION*1..]->(:STEP)，关系不重复。
func (g *MemoryGraph) forwardFromStep(params map[string]any) []navgraph.PathRecord {
	goalID := navgraph.String(params[navgraph.ParamGoalID])
	stepID, _ := navgraph.Int64(params[navgraph.ParamStepID])

	if goal, ok := g.nodes[goalID]; !ok || !goal.HasLabel(navgraph.LabelGoal) {
		return nil
	}

	var out []navgraph.PathRecord
	for _, id := range g.neighbors(goalID) {
		step := g.nodes[id]
		sid, ok := navgraph.Int64(step.Properties[navgraph.PropStepID])
		if !step.HasLabel(navgraph.LabelStep) || !ok || sid != stepID {
			continue
		}
		for _, p := range g.forward(step, 0, navgraph.RelAction, navgraph.LabelStep) {
			out = append(out, navgraph.PathRecord{Path: p, Values: map[string]any{}})
		}
	}
	return out
}

// forwardFromNodes 对应 apoc.path.expandConfig(minLevel 1, maxLevel max_hops, '>')。
func (g *MemoryGraph) forwardFromNodes(params map[string]any) []navgraph.PathRecord {
	maxHops, _ := navgraph.Int64(params[navgraph.ParamMaxHops])

	var out []navgraph.PathRecord
	for _, id := range navgraph.Strings(params[navgraph.ParamIDs]) {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		for _, p := range g.forward(n, int(maxHops), "", "") {
			out = append(out, navgraph.PathRecord{Path: p, Values: map[string]any{"source_id": id}})
		}
	}
	return out
}

// forward 枚举从 start 出发、关系不重复的出边路径；maxLen 为 0 表示不限长度，
// relType / endLabel 为空表示不限制。
func (g *MemoryGraph) forward(start *navgraph.Node, maxLen int, relType, endLabel string) []navgraph.Path {
	var out []navgraph.Path
	used := map[string]bool{}
	var walk func(p navgraph.Path)
	walk = func(p navgraph.Path) {
		if p.Len() > 0 {
			end, _ := p.End()
			if endLabel == "" || end.HasLabel(endLabel) {
				out = append(out, clonePath(p))
			}
		}
		if maxLen > 0 && p.Len() >= maxLen {
			return
		}
		end, _ := p.End()
		for _, relID := range g.outRels[end.ID] {
			rel := g.rels[relID]
			if used[relID] || (relType != "" && rel.Type != relType) || g.nodes[rel.EndID] == nil {
				continue
			}
			used[relID] = true
			walk(extend(p, *rel, *g.nodes[rel.EndID]))
			used[relID] = false
		}
	}
	walk(navgraph.Path{Nodes: []navgraph.Node{*start}})
	return out
}

// neighbors 返回无方向的相邻节点，按 ID 排序以保证确定性。
func (g *MemoryGraph) neighbors(id string) []string {
	seen := map[string]bool{}
	var out []string
	for _, relID := range g.outRels[id] {
		if n := g.rels[relID].EndID; !seen[n] && g.nodes[n] != nil {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, relID := range g.inRels[id] {
		if n := g.rels[relID].StartID; !seen[n] && g.nodes[n] != nil {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func extend(p navgraph.Path, rel navgraph.Relationship, n navgraph.Node) navgraph.Path {
	return navgraph.Path{
		Nodes:         append(p.Nodes[:len(p.Nodes):len(p.Nodes)], n),
		Relationships: append(p.Relationships[:len(p.Relationships):len(p.Relationships)], rel),
	}
}

func clonePath(p navgraph.Path) navgraph.Path {
	return navgraph.Path{
		Nodes:         append([]navgraph.Node(nil), p.Nodes...),
		Relationships: append([]navgraph.Relationship(nil), p.Relationships...),
	}
}

var _ navgraph.Gateway = (*MemoryGraph)(nil)
