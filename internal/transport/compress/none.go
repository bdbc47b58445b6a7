package compress

// noneModel 不做任何压缩/解压，直接返回输入内容。
// 作为模型 0 保证调度路径的统一，对应关闭压缩的链路。
type noneModel struct{}

var _ Model = noneModel{}

func (noneModel) LoadLib() error {
	return nil
}

func (noneModel) UnloadLib() {}

func (noneModel) ValidateLevel(int) bool {
	return true
}

func (noneModel) Compress(_ *Handle, _ []byte, src []byte, _ int) ([]byte, error) {
	return src, nil
}

func (noneModel) Decompress(_ *Handle, _ []byte, src []byte) ([]byte, error) {
	return src, nil
}
