package eta

import (
	"io"
)

// COPY_BUFFER_SIZE 接收数据的 buffer 大小
const COPY_BUFFER_SIZE = 1024 * 32

// Copy 拷贝数据并记录进度, 会消费限速器
// 跟踪器关闭或上下文取消时返回上下文的错误
func (t *Tracker) Copy(dst io.Writer, src io.Reader) (written int64, err error) {
	ctx := t.context()
	buf := make([]byte, COPY_BUFFER_SIZE)
	for {
		if contextDone(ctx) {
			return written, ctx.Err()
		}
		nr, rerr := src.Read(buf)
		if nr > 0 {
			// 消费限速器
			if err = t.rateWaitN(ctx, nr); err != nil {
				return written, err
			}
			nw, werr := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if werr == nil {
					werr = errInvalidWrite
				}
			}
			written += int64(nw)
			t.Add(int64(nw))
			if werr != nil {
				return written, werr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				return written, rerr
			}
			return written, nil
		}
	}
}

// Reader 包装 reader, 读取的字节数计入进度
// Close 会关闭底层 reader, 底层没有实现 io.Closer 时什么都不做
func (t *Tracker) Reader(r io.Reader) io.ReadCloser {
	return &progressReader{
		reader:  r,
		tracker: t,
	}
}

// progressReader 记录进度的 reader
type progressReader struct {
	reader  io.Reader
	tracker *Tracker
}

// Read 读取
func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		if werr := pr.tracker.rateWaitN(pr.tracker.context(), n); werr != nil {
			pr.tracker.Add(int64(n))
			return n, werr
		}
		pr.tracker.Add(int64(n))
	}
	return n, err
}

// Close 关闭底层 reader
func (pr *progressReader) Close() error {
	if closer, ok := pr.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeFunc 代理写入
type writeFunc struct {
	writeFunc func([]byte) (n int, err error)
}

// newWriteFunc 代理写入
func newWriteFunc(w func([]byte) (n int, err error)) io.Writer {
	return &writeFunc{
		writeFunc: w,
	}
}

// Write 写入
func (fa *writeFunc) Write(p []byte) (n int, err error) {
	return fa.writeFunc(p)
}

// Writer 包装 writer, 写入的字节数计入进度
func (t *Tracker) Writer(w io.Writer) io.Writer {
	return newWriteFunc(func(b []byte) (int, error) {
		n, err := w.Write(b)
		if n > 0 {
			t.Add(int64(n))
		}
		return n, err
	})
}
