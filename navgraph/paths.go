package navgraph

import "sort"

// =============================================================================
// 路径后处理
// =============================================================================

// MaximalPaths 去掉被其它路径包含的路径：若路径 A 的边集合是路径 B 边集合的
// 真子集，则丢弃 A。边集合完全相同的路径只保留第一条。结果保持输入顺序。
func MaximalPaths(paths []Path) []Path {
	idx := maximalIndexes(len(paths), func(i int) Path { return paths[i] })
	out := make([]Path, len(idx))
	for k, i := range idx {
		out[k] = paths[i]
	}
	return out
}

// MaximalRecords 对 PathRecord 应用与 MaximalPaths 相同的规则。
func MaximalRecords(records []PathRecord) []PathRecord {
	idx := maximalIndexes(len(records), func(i int) Path { return records[i].Path })
	out := make([]PathRecord, len(idx))
	for k, i := range idx {
		out[k] = records[i]
	}
	return out
}

func maximalIndexes(n int, at func(int) Path) []int {
	sets := make([]map[string]struct{}, n)
	for i := 0; i < n; i++ {
		p := at(i)
		set := make(map[string]struct{}, p.Len())
		for _, r := range p.Relationships {
			set[r.ID] = struct{}{}
		}
		sets[i] = set
	}

	keep := make([]int, 0, n)
outer:
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || len(sets[i]) > len(sets[j]) || !subset(sets[i], sets[j]) {
				continue
			}
			// 真子集，或与更早的路径重复
			if len(sets[i]) < len(sets[j]) || j < i {
				continue outer
			}
		}
		keep = append(keep, i)
	}
	return keep
}

func subset(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// FlowConsistent reports whether every flow-tagged node and relationship on
// the path shares at least one flow. Paths with no tagged element pass.
func FlowConsistent(p Path) bool {
	var common map[string]struct{}
	intersect := func(props map[string]any) bool {
		raw, ok := props[PropFlows]
		if !ok || raw == nil {
			return true
		}
		flows := Strings(raw)
		if len(flows) == 0 {
			return true
		}
		next := make(map[string]struct{}, len(flows))
		for _, f := range flows {
			if common == nil {
				next[f] = struct{}{}
			} else if _, ok := common[f]; ok {
				next[f] = struct{}{}
			}
		}
		common = next
		return len(common) > 0
	}

	for _, n := range p.Nodes {
		if !intersect(n.Properties) {
			return false
		}
	}
	for _, r := range p.Relationships {
		if !intersect(r.Properties) {
			return false
		}
	}
	return true
}

// FilterFlowConsistent keeps the paths for which FlowConsistent holds.
func FilterFlowConsistent(paths []Path) []Path {
	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		if FlowConsistent(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortByLengthDesc returns a copy ordered by descending Len; ties keep
// their input order.
func SortByLengthDesc(paths []Path) []Path {
	out := append([]Path(nil), paths...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Len() > out[j].Len()
	})
	return out
}
