package eta

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// BarTemplate 进度条显示内容的参数
type BarTemplate struct {
	// Template 模版
	Template *template.Template
	// NoSizeTemplate 获取不到总大小时的模板
	NoSizeTemplate *template.Template
	// Saucer 进度字符, 默认为 =
	Saucer string
	// SaucerHead 进度条头, 使用场景 =====> , 其中的 > 就是进度条头, 默认为 >
	SaucerHead string
	// SaucerPadding 进度空白字符, 默认为 -
	SaucerPadding string
	// BarStart 进度前缀, 默认为 [
	BarStart string
	// BarEnd 进度后缀, 默认为 ]
	BarEnd string
	// BarWidth 进度条宽度, 为 0 时使用终端宽度, 获取不到时为 80
	BarWidth int
}

// BarStatString 注入到模版中的字符串结构
// {{.Label}} {{.CompletedLength}} / {{.TotalLength}} {{.Saucer}} {{.Progress}}% {{.DownloadSpeed}}/s {{.EstimatedTime}} {{.EstimatedArrival}} {{.Elapsed}}
type BarStatString struct {
	// Label 名称
	Label string
	// TotalLength 总大小
	TotalLength string
	// CompletedLength 已完成大小
	CompletedLength string
	// DownloadSpeed 每秒完成的字节数
	DownloadSpeed string
	// EstimatedTime 预计完成还需要的时间, 无法估算时为 --:--
	EstimatedTime string
	// EstimatedArrival 预计完成的时间点, 无法估算时为 --:--:--
	EstimatedArrival string
	// Elapsed 已经过的时间
	Elapsed string
	// Progress 进度, 0 ~ 100
	Progress string
	// Saucer 进度条
	Saucer string
}

// saucerPlaceholder 模版中进度条的占位符
const saucerPlaceholder = "_____Saucer_____"

// defaultBarWidth 获取不到终端宽度时的进度条宽度
const defaultBarWidth = 80

// Bar 提供一个简单的进度条
type Bar struct {
	// Template 进度条样式
	Template *BarTemplate
	// FriendlyFormat 使用人类友好的单位
	FriendlyFormat bool
	// FinishHide 完成后隐藏进度条
	FinishHide bool
	// Hide 是否隐藏进度条
	Hide bool
	// Stdout 进度条输出, 默认为 os.Stdout
	Stdout io.Writer
	// Interval 最短重绘间隔, 默认为 100 毫秒, 结束时的绘制不受限制
	Interval time.Duration

	once    sync.Once
	limiter *rate.Limiter
}

var _ ProgressEvent = &Bar{}

// NewBar 创建进度条
func NewBar() *Bar {
	t := template.Must(template.New("EtaBarTemplate").Parse(`{{.CompletedLength}} / {{.TotalLength}} {{.Saucer}} {{.Progress}}% {{.DownloadSpeed}}/s {{.EstimatedTime}}`))
	notsizeT := template.Must(template.New("EtaBarNotSizeTemplate").Parse(`{{.CompletedLength}} {{.DownloadSpeed}}/s {{.Elapsed}}`))
	return &Bar{
		Template: &BarTemplate{
			Template:       t,
			NoSizeTemplate: notsizeT,
			Saucer:         "=",
			SaucerHead:     ">",
			SaucerPadding:  "-",
			BarStart:       "[",
			BarEnd:         "]",
			BarWidth:       0,
		},
		FriendlyFormat: true,
		Hide:           false,
		Stdout:         os.Stdout,
		FinishHide:     false,
		Interval:       time.Millisecond * 100,
	}
}

// Change 检查更新
func (bar *Bar) Change(stat *Stat) {
	if stat == nil || bar.Hide || stat.Status.Is(STATUS_NOTSTART, STATUS_BEGIN) {
		return
	}
	if !stat.Status.Done() && !bar.allow() {
		return
	}
	var templateEntity *template.Template
	if stat.TotalLength == 0 {
		templateEntity = bar.Template.NoSizeTemplate
	} else {
		templateEntity = bar.Template.Template
	}
	if stat.Status.Done() {
		// 结束后清除进度条
		if bar.FinishHide {
			fmt.Fprintf(bar.Stdout, "\r%s\r", strings.Repeat(" ", bar.width()))
			return
		}
		if err := barRender(bar, stat, templateEntity, stat.Status.Is(STATUS_FINISH)); err != nil {
			return
		}
		fmt.Fprintln(bar.Stdout)
		return
	}
	barRender(bar, stat, templateEntity, false)
}

// allow 是否到了可以重绘的时间
func (bar *Bar) allow() bool {
	bar.once.Do(func() {
		if bar.Interval > 0 {
			bar.limiter = rate.NewLimiter(rate.Every(bar.Interval), 1)
		}
	})
	return bar.limiter == nil || bar.limiter.Allow()
}

// width 进度条总宽度
func (bar *Bar) width() int {
	if bar.Template.BarWidth > 0 {
		return bar.Template.BarWidth
	}
	if f, ok := bar.Stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			// 留出一列, 避免光标换行
			return w - 1
		}
	}
	return defaultBarWidth
}

// barStatString 将数据转为字符串结构
func (bar *Bar) barStatString(stat *Stat) BarStatString {
	formatFileSizeFunc := func(fileSize int64) string {
		return fmt.Sprintf("%d B", fileSize)
	}
	formatTimeFunc := func(t time.Duration) string {
		if t == Infinite {
			return "--"
		}
		return fmt.Sprintf("%ds", int64(t.Seconds()))
	}
	if bar.FriendlyFormat {
		formatFileSizeFunc = func(fileSize int64) string {
			if fileSize < 0 {
				fileSize = 0
			}
			return humanize.IBytes(uint64(fileSize))
		}
		formatTimeFunc = formatDuration
	}

	estimatedTime := formatTimeFunc(Infinite)
	estimatedArrival := "--:--:--"
	if stat.EtaAvailable {
		estimatedTime = formatTimeFunc(stat.EstimatedTime)
		if !stat.EstimatedArrival.IsZero() {
			estimatedArrival = stat.EstimatedArrival.Format(time.TimeOnly)
		}
	}

	return BarStatString{
		Label:            stat.Label,
		TotalLength:      formatFileSizeFunc(stat.TotalLength),
		CompletedLength:  formatFileSizeFunc(stat.CompletedLength),
		DownloadSpeed:    formatFileSizeFunc(stat.DownloadSpeed),
		EstimatedTime:    estimatedTime,
		EstimatedArrival: estimatedArrival,
		Elapsed:          formatTimeFunc(stat.Elapsed),
		Progress:         fmt.Sprint(stat.Progress),
		Saucer:           saucerPlaceholder,
	}
}

// barRender 渲染
func barRender(bar *Bar, stat *Stat, tmpl *template.Template, finish bool) error {
	statString := bar.barStatString(stat)

	// 模版渲染
	barTemplate := bytes.NewBuffer(make([]byte, 0))
	if err := tmpl.Execute(barTemplate, statString); err != nil {
		return err
	}
	barTemplateString := barTemplate.String()

	// 模版中没有进度条占位符时直接输出
	if !strings.Contains(barTemplateString, saucerPlaceholder) {
		_, err := fmt.Fprintf(bar.Stdout, "\r%s", barTemplateString)
		return err
	}

	// 计算进度条需要占用的长度
	barStart := bar.Template.BarStart
	barEnd := bar.Template.BarEnd
	width := bar.width() - utf8.RuneCountInString(barTemplateString) - utf8.RuneCountInString(barStart) - utf8.RuneCountInString(barEnd) + len(saucerPlaceholder)
	if width < 0 {
		width = 0
	}
	saucerCount := int(float64(stat.Progress) / 100.0 * float64(width))
	if saucerCount > width {
		saucerCount = width
	}

	// 组装进度条
	saucerBuffer := bytes.NewBuffer(make([]byte, 0))
	saucerBuffer.WriteString(barStart)
	if saucerCount > 0 {
		saucerBuffer.WriteString(strings.Repeat(bar.Template.Saucer, saucerCount-1))
		saucerHead := bar.Template.SaucerHead
		if saucerHead == "" || finish {
			saucerHead = bar.Template.Saucer
		}
		saucerBuffer.WriteString(saucerHead)
	}
	saucerBuffer.WriteString(strings.Repeat(bar.Template.SaucerPadding, width-saucerCount))
	saucerBuffer.WriteString(barEnd)

	// 替换占位的进度条并打印
	_, err := fmt.Fprintf(bar.Stdout, "\r%s", strings.ReplaceAll(barTemplateString, saucerPlaceholder, saucerBuffer.String()))
	return err
}
