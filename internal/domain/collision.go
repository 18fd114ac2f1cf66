package domain

// Collision 是映射到同一输出文件的一组文章（按处理顺序，最后一篇的内容留在磁盘上）。
type Collision struct {
	File    string `json:"file"`
	PostIDs []int  `json:"post_ids"`
}
