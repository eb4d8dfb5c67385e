package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// request 资源请求器
type request struct {
	// ctx 上下文
	ctx context.Context
	// uri 请求资源链接
	uri string
	// client http 客户端
	client *http.Client
	// header 请求时的头部信息
	header http.Header
	// retryNumber 重试次数
	retryNumber int
	// retryTime 重试间隔时间
	retryTime time.Duration
	// logger 日志
	logger *zap.Logger
}

// resourceInfo 资源信息
type resourceInfo struct {
	// uri 资源链接
	uri string
	// filesize 资源大小, 未知时为 0
	filesize int64
	// contentType 资源类型
	contentType string
	// contentDisposition 资源描述
	contentDisposition string
}

// newResourceInfo 从响应头获取资源信息
func newResourceInfo(uri string, res *http.Response) *resourceInfo {
	info := &resourceInfo{
		uri:                uri,
		contentType:        res.Header.Get("content-type"),
		contentDisposition: res.Header.Get("content-disposition"),
	}
	if res.ContentLength > 0 {
		info.filesize = res.ContentLength
	} else if n, err := strconv.ParseInt(res.Header.Get("content-length"), 10, 64); err == nil && n > 0 {
		info.filesize = n
	}
	return info
}

// getFilename 获取文件名
func (b *resourceInfo) getFilename() string {
	// 从附加信息中获取文件名
	name := getMimeFilename(b.contentDisposition)
	if name != "" {
		return name
	}
	// 从资源链接中获取文件名
	name = getUriFilename(b.uri)
	if name != "" {
		return name
	}
	// 随机生成名称
	return fmt.Sprintf("file_%s%d", randomString(5, 1), time.Now().UnixNano())
}

// get 发送 GET 请求
func (r *request) get() (*http.Response, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header = r.header.Clone()
	return r.do(req)
}

// do 对于 client.Do 的包装，主要实现重试机制
func (r *request) do(req *http.Request) (*http.Response, error) {
	for retryNum := 0; ; retryNum++ {
		res, err := r.client.Do(req)
		if err == nil && res.StatusCode < 400 {
			r.logger.Debug("request done", zap.String("uri", r.uri), zap.Int("status", res.StatusCode), zap.Int("retry", retryNum))
			return res, nil
		}
		if err == nil {
			res.Body.Close()
			err = fmt.Errorf("%s HTTP Status Code %d", r.uri, res.StatusCode)
		}
		r.logger.Debug("request failed", zap.String("uri", r.uri), zap.Int("retry", retryNum), zap.Error(err))
		if retryNum+1 >= r.retryNumber {
			return nil, err
		}
		select {
		case <-time.After(r.retryTime):
		case <-r.ctx.Done():
			return nil, r.ctx.Err()
		}
	}
}
