package domain

// FileEntry 描述一次目录列举得到的普通文件（只做 stat，不读内容）。
//
// 不变量：
// - AbsPath 必须是 clean + absolute
// - 仅代表“列举时刻”是普通文件；复制时可能已被删除/移动（接受该竞态，不做处理）
type FileEntry struct {
	AbsPath string
	Name    string
	Size    int64
	ModUnix int64
}

// Batch 是 Batcher 产出的一组文件，长度 ≤ 配置的 batch size。
// Index 从 0 开始，用于拼接目标目录名后缀 _<Index>。
type Batch struct {
	Index int
	Files []FileEntry
}
