// Package main 启动应用程序
package main

import "github.com/yeisme/filevault/pkg/cmd"

//	@title			FileVault API
//	@version		1.0
//	@description	FileVault 是一个按内容去重的文件存储服务，提供文件上传、筛选查询、重复文件与存储统计等功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

//	@BasePath	/api/v1

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
