package domain

// Step 是从正文有序列表中提取的一条步骤。
type Step struct {
	Step        int    `json:"step" yaml:"step"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Frontmatter 是写入 Markdown 文件头部的固定字段集合。
//
// 字段顺序即输出顺序；所有字段总是输出（缺失值由默认值表补齐）。
// Steps 只有在配置 include_steps=true 时才输出。
type Frontmatter struct {
	Title               string `yaml:"title"`
	Description         string `yaml:"description"`
	Make                string `yaml:"make"`
	Model               string `yaml:"model"`
	Years               string `yaml:"years"`
	YearStart           int    `yaml:"yearStart"`
	YearEnd             int    `yaml:"yearEnd"`
	Difficulty          string `yaml:"difficulty"`
	TimeMinutes         int    `yaml:"timeMinutes"`
	RequiresExistingKey bool   `yaml:"requiresExistingKey"`
	RequiresLocksmith   bool   `yaml:"requiresLocksmith"`
	Author              string `yaml:"author"`
	PubDate             string `yaml:"pubDate"`
	OldURL              string `yaml:"oldUrl"`

	Steps []Step `yaml:"steps,omitempty"`
}

// Document 是一篇待写出的文档：frontmatter + Markdown 正文。
type Document struct {
	Frontmatter Frontmatter
	Body        string
}

// Redirect 是一条旧路径 -> 新路径的映射（redirects.json 的元素）。
type Redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
}
