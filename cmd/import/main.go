package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalog-feed/internal/config"
	"github.com/catalog-feed/internal/constants"
	"github.com/catalog-feed/internal/logger"
	"github.com/catalog-feed/internal/models"
	"github.com/catalog-feed/internal/provider"
	"github.com/catalog-feed/internal/service"

	"github.com/joho/godotenv"
)

// 从 JSON 文件（或标准输入）读取更新批次并直接写库
func main() {
	var file string
	flag.StringVar(&file, "file", "-", "更新批次 JSON 文件路径，- 表示标准输入")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	input, closeInput, err := openInput(file)
	if err != nil {
		stdLog.Fatalf("读取更新文件失败: %v", err)
	}
	items, err := service.DecodeUpdateItems(input)
	closeInput()
	if err != nil {
		stdLog.Fatalf("解析更新文件失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container := provider.NewContainer(cfg)
	defer container.Close()

	// 大文件按单批上限切分，逐批执行
	skipped := false
	for _, chunk := range chunkItems(items, cfg.Import.MaxItemsPerRequest) {
		result, err := container.CatalogUpdateService.Apply(ctx, chunk)
		if result != nil {
			printResult(os.Stdout, result)
			skipped = skipped || result.HasSkipped()
		}
		if err != nil {
			container.Close()
			stdLog.Fatalf("批次执行失败: %v", err)
		}
	}
	if skipped {
		container.Close()
		os.Exit(1)
	}
}

func chunkItems(items []service.UpdateItem, size int) [][]service.UpdateItem {
	if size <= 0 {
		size = constants.DefaultMaxItemsPerRequest
	}
	chunks := make([][]service.UpdateItem, 0, len(items)/size+1)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func openInput(file string) (io.Reader, func(), error) {
	if file == "" || file == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func printResult(w io.Writer, result *service.BatchResult) {
	fmt.Fprintf(w, "batch %s: items=%d updated=%d skipped=%d fields_skipped=%d reindex_tasks=%d\n",
		result.BatchID, result.Items, result.Updated, result.Skipped, result.FieldsSkipped, result.ReindexTasks)
	for _, message := range result.Errors {
		fmt.Fprintln(w, "  "+message)
	}
}
