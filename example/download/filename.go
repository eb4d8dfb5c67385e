package main

import (
	"fmt"
	"math/rand"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// sniffSize 识别文件类型需要的头部字节数
const sniffSize = 262

// fileExist 文件是否存在
func fileExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// getMimeFilename 获取附加的文件名称
func getMimeFilename(s string) string {
	_, params, err := mime.ParseMediaType(s)
	if err != nil {
		return ""
	}
	if val, ok := params["filename"]; ok {
		return val
	}
	return ""
}

// getUriFilename 获取资源链接中的文件名
func getUriFilename(s string) string {
	u, _ := url.Parse(s)
	if u != nil {
		us := strings.Split(u.Path, "/")
		if len(us) > 1 {
			return us[len(us)-1]
		}
	}
	return ""
}

// detectExtension 根据文件头识别扩展名, 识别不了时返回空
func detectExtension(head []byte) string {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.Extension
}

// withExtension 文件名没有扩展名时, 根据文件头补上
func withExtension(name string, head []byte) string {
	if filepath.Ext(name) != "" {
		return name
	}
	if ext := detectExtension(head); ext != "" {
		return name + "." + ext
	}
	return name
}

// randomString 随机字符串
// size 随机码的位数
// kind 0=纯数字,1=小写字母,2=大写字母,3=数字、大小写字母
func randomString(size int, kind int) string {
	if size < 1 {
		return ""
	}
	ikind, kinds, rsbytes := kind, [][]int{{10, 48}, {26, 97}, {26, 65}}, make([]byte, size)
	isAll := kind > 2 || kind < 0
	for i := 0; i < size; i++ {
		if isAll {
			ikind = rand.Intn(3)
		}
		scope, base := kinds[ikind][0], kinds[ikind][1]
		rsbytes[i] = uint8(base + rand.Intn(scope))
	}
	return string(rsbytes)
}

// autoFileRenaming 自动文件重命名，寻找不冲突的命名
func autoFileRenaming(dir, name string) (string, string) {
	i := 1
	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext)
	var path string
	var filename string
	for {
		filename = fmt.Sprintf("%s.%d%s", name, i, ext)
		path = filepath.Join(dir, filename)
		if !fileExist(path) {
			break
		}
		i++
	}
	return path, filename
}

// filterFileName 去掉开头的空白和文件名中的非法字符, 最多保留 255 个字
func filterFileName(name string) string {
	name = strings.TrimLeft(name, " \t")
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`?\/*"<>|:`, r) {
			return -1
		}
		return r
	}, name)
	if runes := []rune(name); len(runes) > 255 {
		name = string(runes[:255])
	}
	return name
}
