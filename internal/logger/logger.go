// Package logger cung cấp hệ thống logging tập trung cho toàn bộ backend:
// các logger đặt tên (app, audit, performance, error) với rotation, filter
// và ghi bất đồng bộ để không block request handling.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// loggers giữ các instance theo tên, tạo lazy trong GetLogger
	loggers   = make(map[string]*logrus.Logger)
	loggersMu sync.Mutex

	// config là cấu hình đang hiệu lực, set qua Init
	config *LogConfig

	// rootDir là gốc project, dò một lần lúc Init
	rootDir string
)

// Init nhận cấu hình log và chuẩn bị thư mục ghi file. Truyền nil để dùng mặc định.
func Init(cfg *LogConfig) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	config = cfg

	// Dò thư mục gốc trước khi tính đường dẫn logs
	if err := initRootDir(); err != nil {
		return fmt.Errorf("failed to initialize root directory: %w", err)
	}

	// Thư mục logs phải có sẵn trước khi lumberjack mở file
	logPath := getLogPath()
	if err := os.MkdirAll(logPath, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	return nil
}

// initRootDir dò đường dẫn gốc của project theo ba nguồn, chỉ chạy một lần.
func initRootDir() error {
	if rootDir != "" {
		return nil
	}

	// Nguồn 1: biến môi trường LOG_ROOT_DIR, ưu tiên trước hết
	if envRootDir := os.Getenv("LOG_ROOT_DIR"); envRootDir != "" {
		// Đi theo symlink nếu có
		resolvedPath, err := filepath.EvalSymlinks(envRootDir)
		if err == nil {
			rootDir = resolvedPath
			return nil
		}
		rootDir = envRootDir
		return nil
	}

	// Nguồn 2: suy từ vị trí file thực thi
	executable, err := os.Executable()
	if err == nil {
		// systemd hay chạy binary qua symlink, phải resolve trước khi tính đường dẫn
		resolvedExecutable, err := filepath.EvalSymlinks(executable)
		if err == nil {
			executable = resolvedExecutable
		}

		// Binary nằm trong <gốc>/cmd/server/ nên gốc là ba cấp cha
		// (/srv/bid_flow/cmd/server/main thì gốc là /srv/bid_flow)
		rootDir = filepath.Dir(filepath.Dir(filepath.Dir(executable)))

		// Đường dẫn suy ra phải chứa logs/ hoặc config/ mới tin được
		if _, err := os.Stat(filepath.Join(rootDir, "logs")); err == nil {
			return nil
		}
		if _, err := os.Stat(filepath.Join(rootDir, "config")); err == nil {
			return nil
		}
	}

	// Nguồn 3: đi lên từ working directory
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not get executable or working directory: %v", err)
	}

	// Tìm thư mục gốc bằng cách đi lên từ working directory
	currentDir := wd
	for i := 0; i < 5; i++ { // Tối đa đi lên 5 cấp
		if _, err := os.Stat(filepath.Join(currentDir, "logs")); err == nil {
			rootDir = currentDir
			return nil
		}
		if _, err := os.Stat(filepath.Join(currentDir, "config")); err == nil {
			rootDir = currentDir
			return nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break // Đã đến root
		}
		currentDir = parentDir
	}

	// Hết cách: lấy hai cấp trên working directory
	rootDir = filepath.Dir(filepath.Dir(wd))
	return nil
}

// getLogPath ghép thư mục logs từ config, chấp nhận cả đường dẫn tuyệt đối.
func getLogPath() string {
	if filepath.IsAbs(config.LogPath) {
		return config.LogPath
	}
	return filepath.Join(rootDir, config.LogPath)
}

// GetLogger lấy logger theo tên (app, audit, performance, error), tạo mới nếu chưa có.
func GetLogger(name string) *logrus.Logger {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Gọi trước Init thì tự Init bằng mặc định
	if config == nil {
		if err := Init(nil); err != nil {
			panic(fmt.Sprintf("Failed to initialize logger: %v", err))
		}
	}

	// Dựng một lần rồi dùng lại
	if logger, ok := loggers[name]; ok {
		return logger
	}

	logger := createLogger(name)
	loggers[name] = logger

	return logger
}

// createLogger dựng logger logrus hoàn chỉnh: level, formatter, writer và các hook.
func createLogger(name string) *logrus.Logger {
	logger := logrus.New()

	// Level từ config, chuỗi hỏng thì rơi về Info
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Formatter theo config: json cho máy đọc, text cho người đọc
	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return funcName, fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
	}

	// Chọn writer đầu ra.
	// ⚠️ QUAN TRỌNG: không gom writers vào MultiWriter. File I/O chậm sẽ kéo
	// cả stdout chậm theo, nên mọi writer đều đi qua async hook bên dưới.

	var writers []io.Writer

	// Ghi file qua lumberjack để có rotation
	if config.Output == "file" || config.Output == "both" {
		logFile := getLogFilePath(name)
		fileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    config.MaxSize,    // MB
			MaxBackups: config.MaxBackups, // Số file cũ giữ lại
			MaxAge:     config.MaxAge,     // Số ngày
			Compress:   config.Compress,   // Nén file cũ
		}
		writers = append(writers, fileWriter)
	}

	// Stdout cho chạy foreground hoặc trong container
	if config.Output == "stdout" || config.Output == "both" {
		writers = append(writers, os.Stdout)
	}

	// FilterHook phải đứng trước AsyncHook: entry bị loại thì khỏi vào queue
	filterHook := NewFilterHook(config)
	logger.AddHook(filterHook)

	// Mọi writer đi qua async hook, goroutine riêng lo phần I/O.
	// Queue 1000 entry là đủ cho tải hiện tại.
	if len(writers) > 0 {
		asyncHook := NewAsyncHookWithWriters(writers, 1000)
		logger.AddHook(asyncHook)
		// Output về Discard: hook đã ghi rồi, set thêm là log nhân đôi
		logger.SetOutput(io.Discard)
	}

	// Ghi kèm caller (file:line)
	logger.SetReportCaller(true)

	// Mỗi entry mang tên service để lọc khi gom log
	logger = logger.WithField("service", name).Logger

	// Entry đầu tiên ghi lại cấu hình đang chạy
	logger.WithFields(logrus.Fields{
		"log_file": getLogFilePath(name),
		"level":    logger.GetLevel().String(),
		"format":   config.Format,
		"output":   config.Output,
	}).Info("Logger initialized successfully")

	return logger
}

// getLogFilePath chọn tên file log theo tên logger.
func getLogFilePath(name string) string {
	logPath := getLogPath()
	var filename string

	switch name {
	case "app":
		filename = config.AppFile
	case "audit":
		filename = config.AuditFile
	case "performance":
		filename = config.PerformanceFile
	case "error":
		filename = config.ErrorFile
	default:
		filename = fmt.Sprintf("%s.log", name)
	}

	return filepath.Join(logPath, filename)
}

// GetAppLogger là logger mặc định cho luồng nghiệp vụ.
func GetAppLogger() *logrus.Logger {
	return GetLogger("app")
}

// GetAuditLogger ghi vệt thao tác của người dùng và agent.
func GetAuditLogger() *logrus.Logger {
	return GetLogger("audit")
}

// GetPerformanceLogger ghi số liệu thời gian xử lý.
func GetPerformanceLogger() *logrus.Logger {
	return GetLogger("performance")
}

// GetErrorLogger dành riêng cho lỗi cần người xem sớm.
func GetErrorLogger() *logrus.Logger {
	return GetLogger("error")
}
