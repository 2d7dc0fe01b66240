package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"BankRecon/internal/config"

	"github.com/robfig/cron/v3"
)

type LoggerService struct {
	Config            map[string]interface{}
	file              *os.File
	mu                sync.Mutex
	stopCh            chan struct{}
	wg                sync.WaitGroup
	sched             *cron.Cron
	currentLog        string
	maxFileBytes      int64
	retentionDays     int
	retentionSchedule string
	folderPath        string
}

func NewLoggerService(cfg map[string]interface{}) *LoggerService {
	maxMB, _ := cfg["max_file_mb"].(int)
	if maxMB == 0 {
		if f, ok := cfg["max_file_mb"].(float64); ok {
			maxMB = int(f)
		}
	}
	retention, _ := cfg["retention_days"].(int)
	if retention == 0 {
		if f, ok := cfg["retention_days"].(float64); ok {
			retention = int(f)
		}
	}
	folder, _ := cfg["folder_path"].(string)
	if folder == "" {
		folder = config.DefaultLogFolder
	}
	schedule, _ := cfg["retention_schedule"].(string)
	if schedule == "" {
		schedule = config.DefaultRetentionSchedule
	}
	return &LoggerService{
		Config:            cfg,
		stopCh:            make(chan struct{}),
		maxFileBytes:      int64(maxMB) * 1024 * 1024,
		retentionDays:     retention,
		retentionSchedule: schedule,
		folderPath:        folder,
	}
}

func (l *LoggerService) Name() string {
	return "logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	logFile := l.nextLogFileName()
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentLog = logFile
	log.SetOutput(file)
	log.Println("[LoggerService] Started, writing to", logFile)

	l.sched = cron.New()
	if _, err := l.sched.AddFunc(l.retentionSchedule, l.zipAndCleanOldLogs); err != nil {
		log.SetOutput(os.Stderr)
		file.Close()
		l.file, l.sched = nil, nil
		return fmt.Errorf("retention schedule %q: %w", l.retentionSchedule, err)
	}
	l.sched.Start()

	// rotation stays on a short ticker, cron only drives retention
	l.wg.Add(1)
	go l.rotationWorker()

	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	if l.sched != nil {
		<-l.sched.Stop().Done()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		log.Println("[LoggerService] Stopping")
		log.SetOutput(os.Stderr)
		return l.file.Close()
	}
	return nil
}

// CurrentFile returns the path of the file currently receiving log output.
func (l *LoggerService) CurrentFile() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentLog
}

func (l *LoggerService) nextLogFileName() string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(l.folderPath, fmt.Sprintf("recon_%s.log", timestamp))
}

func (l *LoggerService) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= l.maxFileBytes && l.maxFileBytes > 0 {
		l.file.Close()
		newLog := l.nextLogFileName()
		file, err := os.OpenFile(newLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		l.file = file
		l.currentLog = newLog
		log.SetOutput(file)
		log.Println("[LoggerService] Rotated log file to", newLog)
	}
	return nil
}

func (l *LoggerService) rotationWorker() {
	defer l.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.rotateIfNeeded(); err != nil {
				Errorf("log rotation: %v", err)
			}
		}
	}
}

// zipAndCleanOldLogs moves .log files older than the retention window into a dated zip.
func (l *LoggerService) zipAndCleanOldLogs() {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)
	files, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}
	l.mu.Lock()
	current := l.currentLog
	l.mu.Unlock()

	var stale []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".log" {
			continue
		}
		fullPath := filepath.Join(l.folderPath, f.Name())
		if fullPath == current {
			continue
		}
		info, err := os.Stat(fullPath)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		stale = append(stale, fullPath)
	}
	if len(stale) == 0 {
		return
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", time.Now().Format("20060102_150405")))
	zipFile, err := os.Create(zipName)
	if err != nil {
		return
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	for _, fullPath := range stale {
		w, err := zipWriter.Create(filepath.Base(fullPath))
		if err != nil {
			continue
		}
		src, err := os.Open(fullPath)
		if err != nil {
			continue
		}
		io.Copy(w, src)
		src.Close()
		os.Remove(fullPath)
	}
	l.LogAudit(fmt.Sprintf("archived %d log files into %s", len(stale), zipName))
}

func (l *LoggerService) LogAudit(msg string) {
	log.Printf("[AUDIT] %s", msg)
}

var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// Audit writes an audit line through the global logger when one is installed.
func Audit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if GlobalLogger != nil {
		GlobalLogger.LogAudit(msg)
		return
	}
	log.Printf("[AUDIT] %s", msg)
}

func Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
