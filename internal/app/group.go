package app

import (
	"github.com/John-Robertt/wpmig/internal/domain"
)

// GroupByTarget 找出写到同一输出文件的已转换条目，并标记被覆盖者。
//
// - 只统计 status=converted 的条目（失败条目没有写入）
// - 组内按处理顺序排列；最后一篇胜出，其余条目的 OverwrittenBy 设为胜出者的 post id
// - 返回的冲突组按首次出现顺序排列
func GroupByTarget(items []domain.ItemResult) []domain.Collision {
	index := make(map[string]int, len(items))
	groups := make([][]int, 0, len(items))
	files := make([]string, 0, len(items))

	for i := range items {
		it := items[i]
		if it.Status != domain.StatusConverted || it.File == "" {
			continue
		}
		if g, ok := index[it.File]; ok {
			groups[g] = append(groups[g], i)
			continue
		}
		index[it.File] = len(groups)
		groups = append(groups, []int{i})
		files = append(files, it.File)
	}

	var out []domain.Collision
	for g, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		winner := items[idxs[len(idxs)-1]].PostID
		ids := make([]int, 0, len(idxs))
		for n, i := range idxs {
			ids = append(ids, items[i].PostID)
			if n < len(idxs)-1 {
				items[i].OverwrittenBy = winner
			}
		}
		out = append(out, domain.Collision{File: files[g], PostIDs: ids})
	}
	return out
}
