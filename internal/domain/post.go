package domain

// Rendered 对应 WordPress REST 返回的 {"rendered": "..."} 包装。
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Post 是 /wp/v2/posts 返回条目中本工具消费的最小字段集。
//
// 约束：
// - Post 只在 fetch 阶段创建，transform 阶段消费一次，之后丢弃
// - Categories 只做透传（下游不使用）
type Post struct {
	ID         int      `json:"id"`
	Link       string   `json:"link"`
	Slug       string   `json:"slug"`
	Date       string   `json:"date"` // ISO-8601，例如 "2021-04-09T12:30:00"
	Title      Rendered `json:"title"`
	Content    Rendered `json:"content"`
	Excerpt    Rendered `json:"excerpt"`
	Categories []int    `json:"categories"`
}

// Category 对应 /wp/v2/categories 返回条目。
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Parent      int    `json:"parent"`
	Description string `json:"description"`
}

// CategoryInfo 是分类索引的值（按 ID 索引），整个 run 期间只读。
type CategoryInfo struct {
	Name        string
	Slug        string
	Parent      int
	Description string
}
