package domain

// DocFile 描述一次扫描得到的内容文档（只做 stat，不读内容）。
//
// 不变量：
// - AbsPath 必须是 clean + absolute
// - RelPath 相对被扫描的 content 目录
type DocFile struct {
	AbsPath string
	RelPath string
	Ext     string // ".md"
	Size    int64
	ModUnix int64
}
