package main

import "os"

// 一个仅执行一次采集任务的命令行入口：抓取所有站点并生成当天的报告
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
