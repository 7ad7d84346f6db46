// Package logging 配置全局 logrus 输出：级别、格式，以及可选的按大小轮转的日志文件。
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 描述日志输出方式
type Options struct {
	Level    string
	File     string
	ToStdout bool
	JSON     bool
}

// Setup 按 opts 配置 logrus 标准 logger，返回需要在退出时关闭的文件输出（可能为 nil）
func Setup(opts Options) io.Closer {
	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(Level(opts.Level))

	if opts.File == "" {
		logrus.SetOutput(os.Stdout)
		return nil
	}

	file := opts.File
	if !strings.HasSuffix(file, ".log") {
		file += ".log"
	}
	rotating := &lumberjack.Logger{
		Filename: file,
		MaxSize:  50, // MB
		Compress: true,
	}

	if opts.ToStdout {
		logrus.SetOutput(io.MultiWriter(os.Stdout, rotating))
	} else {
		logrus.SetOutput(rotating)
	}
	return rotating
}

// Level 解析日志级别，未知值回退到 info
func Level(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
