package media

import "io"

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress ProgressFunc
	bytesRead  int64
	lastReport int
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil && pr.Size > 0 {
		percent := int(min(100, pr.bytesRead*100/pr.Size))
		if percent != pr.lastReport {
			pr.lastReport = percent
			pr.OnProgress(percent)
		}
	}
	return n, err
}

// BytesRead возвращает количество прочитанных байт
func (pr *ProgressReader) BytesRead() int64 {
	return pr.bytesRead
}
