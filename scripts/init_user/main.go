package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/newsdesk/internal/db"
)

// 初始化管理员账号。同名用户已存在时什么都不做。
func main() {
	_ = godotenv.Load()

	if err := db.Init(os.Getenv("DATABASE_PATH")); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	username := strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME"))
	if username == "" {
		username = "admin"
	}
	password := strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD"))
	if password == "" {
		log.Fatal("必须通过 SUPER_ROOT_PASSWORD 指定管理员密码")
	}

	if err := db.EnsureUser(username, password); err != nil {
		log.Fatalf("创建管理员失败: %v", err)
	}

	fmt.Printf("管理员账号已就绪: %s\n", username)
}
