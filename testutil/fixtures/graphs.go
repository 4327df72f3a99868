// =============================================================================
// 📦 测试数据工厂 - 导航图
// =============================================================================
// 为四种检索策略提供预置的内存导航图。向量选取使 Neo4j 尺度
// ((1+cos)/2) 的相似度落在阈值边界上，便于验证严格大于的比较。
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/testutil/mocks"
)

// 商店站点 URL
const (
	ShopRawProductURL = "https://shop.example/products/987?coupon=XYZ"
	ShopProductURL    = "https://shop.example/products/987?coupon=<coupon>"
	ShopCheckoutURL   = "https://shop.example/checkout"
	ShopConfirmURL    = "https://shop.example/confirmation"
	ShopCartURL       = "https://shop.example/cart"
	ShopGoal          = "buy product"
)

// GoalVector 是 ShopGoal 的 embedding。
var GoalVector = []float64{1, 0, 0, 0}

// 相对 GoalVector 的向量：
//   - VecExact:    相似度 1.0
//   - VecHigh:     相似度 (1+1/√2)/2 ≈ 0.8536
//   - VecAt075:    相似度恰为 0.75
//   - VecAt060:    相似度恰为 0.6
//   - VecOrthogonal: 相似度 0.5
var (
	VecExact      = []float64{1, 0, 0, 0}
	VecHigh       = []float64{1, 1, 0, 0}
	VecAt075      = []float64{1, 1, 1, 1}
	VecAt060      = []float64{1, 2, 2, 4}
	VecOrthogonal = []float64{0, 1, 0, 0}
)

// ShopGraph 返回一条两跳购买路径：商品页 -> 结算页 -> 确认页。
func ShopGraph() *mocks.MemoryGraph {
	return mocks.NewMemoryGraph().
		AddPage("page-product", ShopProductURL).
		AddPage("page-checkout", ShopCheckoutURL).
		AddPage("page-confirm", ShopConfirmURL).
		AddAction("act-buy", "page-product", "page-checkout", "click", "buy").
		AddAction("act-checkout", "page-checkout", "page-confirm", "click", "checkout")
}

// GoalGraph 返回购物车页面上挂着两个目标的图：
// goal-buy（相似度 0.75，高于 0.6）与 goal-boundary（恰为 0.6）。
// goal-buy 的步骤链为 1 -> 2 -> 3，并在 2 处分叉到 4。
func GoalGraph() *mocks.MemoryGraph {
	return mocks.NewMemoryGraph().
		AddPage("page-cart", ShopCartURL).
		AddGoal("goal-buy", "Buy a product", VecAt075).
		AddGoal("goal-boundary", "Write a review", VecAt060).
		AddStep("step-1", 1, "Open cart").
		AddStep("step-2", 2, "Add to cart").
		AddStep("step-3", 3, "Pay").
		AddStep("step-4", 4, "Apply coupon").
		AddStep("step-9", 9, "Review page").
		AddRelationship("at-1", "AT", "page-cart", "step-1", nil).
		AddRelationship("at-2", "AT", "page-cart", "step-2", nil).
		AddRelationship("at-9", "AT", "page-cart", "step-9", nil).
		AddRelationship("has-1", "HAS_STEP", "goal-buy", "step-1", nil).
		AddRelationship("has-2", "HAS_STEP", "goal-buy", "step-2", nil).
		AddRelationship("has-9", "HAS_STEP", "goal-boundary", "step-9", nil).
		AddRelationship("s1-s2", navgraph.RelAction, "step-1", "step-2", map[string]any{
			navgraph.PropAction: "click", navgraph.PropInput: "", navgraph.PropTarget: "Add to cart",
		}).
		AddRelationship("s2-s3", navgraph.RelAction, "step-2", "step-3", map[string]any{
			navgraph.PropAction: "fill", navgraph.PropInput: "4111", navgraph.PropTarget: "Card number",
		}).
		AddRelationship("s2-s4", navgraph.RelAction, "step-2", "step-4", map[string]any{
			navgraph.PropAction: "fill", navgraph.PropInput: "SAVE10", navgraph.PropTarget: "Coupon",
		})
}

// TaskGraph 返回四个任务节点；与 ShopGoal 的编辑距离依次为
// 0（task-buy）、1（task-buys）、≤19（task-cancel）与 27（task-far）。
func TaskGraph() *mocks.MemoryGraph {
	return mocks.NewMemoryGraph().
		AddTask("task-buy", "buy product", "Buy a product from the shop").
		AddTask("task-buys", "buy products", "").
		AddTask("task-cancel", "cancel subscription", "Cancel a subscription").
		AddTask("task-far", "zzzzzzzzzzzzzzzzzzzzzzzzzzz", "Unrelated").
		AddNode("n-catalog", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Open the catalog"}).
		AddNode("n-add", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Add item to cart"}).
		AddNode("n-search", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Search for products"}).
		AddNode("n-far", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Never shown"}).
		AddRelationship("t1", "HAS_STEP", "task-buy", "n-catalog", nil).
		AddAction("t1-a", "n-catalog", "n-add", "click", "Add").
		AddRelationship("t2", "HAS_STEP", "task-buys", "n-search", nil).
		AddRelationship("t4", "HAS_STEP", "task-far", "n-far", nil)
}

// EmbeddingGraph 返回带 embedding 的节点：emb-exact（1.0）、emb-high（≈0.8536）、
// emb-boundary（恰为 0.75）与 emb-low（0.5）。
func EmbeddingGraph() *mocks.MemoryGraph {
	return mocks.NewMemoryGraph().
		AddNode("emb-high", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Browse deals", navgraph.PropEmbed: VecHigh,
		}).
		AddNode("emb-exact", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Purchase an item", navgraph.PropEmbed: VecExact,
		}).
		AddNode("emb-boundary", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Boundary goal", navgraph.PropEmbed: VecAt075,
		}).
		AddNode("emb-low", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Low goal", navgraph.PropEmbed: VecOrthogonal,
		}).
		AddNode("x-buy", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Click Buy now"}).
		AddNode("x-confirm", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Confirm order"}).
		AddNode("x-deals", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Open deals page"}).
		AddNode("x-boundary", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "Never shown"}).
		AddRelationship("e1", "HAS_STEP", "emb-exact", "x-buy", nil).
		AddAction("e2", "x-buy", "x-confirm", "click", "Confirm").
		AddRelationship("e3", "HAS_STEP", "emb-high", "x-deals", nil).
		AddRelationship("e4", "HAS_STEP", "emb-boundary", "x-boundary", nil)
}
