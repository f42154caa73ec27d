package main

import (
	"BookItNow/internal/pkg/security"
	"BookItNow/internal/realtime"
	"bufio"
	"context"
	"flag"
	"fmt"
	log "log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// chatcli 终端聊天客户端：维护一条通道连接，断线后按退避策略重连，
// 入站消息经查看抑制后进入本地未读计数。
type chatClient struct {
	identity *security.Identity

	mu      sync.Mutex
	ch      *realtime.Channel
	dispose func()

	notifier *realtime.Notifier
	filter   *realtime.SuppressionFilter
	rest     *resty.Client

	endpoint string
	token    string
	done     chan struct{}
}

func main() {
	server := flag.String("server", "http://localhost:8080", "服务端地址")
	token := flag.String("token", "", "登录凭证")
	flag.Parse()

	identity, err := security.ResolveIdentity(*token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "凭证无效:", err)
		os.Exit(1)
	}

	filter := realtime.NewSuppressionFilter(*server, *token, identity.UserID)
	cli := &chatClient{
		identity: identity,
		notifier: realtime.NewNotifier(*server, *token, identity.UserID, filter),
		filter:   filter,
		rest: resty.New().
			SetBaseURL(*server).
			SetTimeout(5 * time.Second).
			SetAuthToken(*token),
		endpoint: "ws" + strings.TrimPrefix(*server, "http") + "/api/im",
		token:    *token,
		done:     make(chan struct{}),
	}

	fmt.Printf("已登录: user=%d role=%s\n", identity.UserID, identity.Role)
	go cli.connectLoop()
	cli.repl()
}

// connectLoop 建连、注册身份、断线重连，直到进程退出
func (s *chatClient) connectLoop() {
	policy := realtime.DefaultBackoff()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		ch := s.connectWithBackoff(policy)
		if ch == nil {
			return
		}

		// 重连窗口内可能漏消息，以服务端快照校正本地计数
		if err := s.notifier.Resync(context.Background()); err != nil {
			log.Warn("未读快照同步失败", "err", err)
		}
		fmt.Printf("已连接，未读 %d 条\n", s.notifier.TotalUnread())

		s.watchUntilOffline(ch)
	}
}

func (s *chatClient) connectWithBackoff(policy realtime.BackoffPolicy) *realtime.Channel {
	for attempt := 0; ; attempt++ {
		select {
		case <-s.done:
			return nil
		default:
		}

		ch, err := realtime.Dial(context.Background(), s.endpoint, s.token)
		if err == nil {
			if err = ch.RegisterIdentity(s.identity.UserID); err == nil {
				s.attach(ch)
				return ch
			}
			ch.Close()
		}

		wait, ok := policy.Next(attempt)
		if !ok {
			fmt.Fprintln(os.Stderr, "重连次数耗尽")
			close(s.done)
			return nil
		}
		log.Warn("连接失败，稍后重试", "wait", wait, "err", err)
		select {
		case <-time.After(wait):
		case <-s.done:
			return nil
		}
	}
}

// attach 切换到新连接：先解除旧连接的订阅再挂新处理器
func (s *chatClient) attach(ch *realtime.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispose != nil {
		s.dispose()
	}
	if s.ch != nil {
		s.ch.Close()
	}

	s.ch = ch
	s.dispose = ch.OnMessage(func(senderID uint64, body string) {
		if s.notifier.OnInboundMessage(context.Background(), senderID) {
			fmt.Printf("\n[未读 %d] %d: %s\n> ", s.notifier.TotalUnread(), senderID, body)
		} else {
			fmt.Printf("\n%d: %s\n> ", senderID, body)
		}
	})
}

func (s *chatClient) watchUntilOffline(ch *realtime.Channel) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			switch ch.State() {
			case realtime.StateOffline:
				fmt.Println("连接断开，重连中...")
				return
			case realtime.StateClosed:
				return
			}
		}
	}
}

func (s *chatClient) current() *realtime.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

func (s *chatClient) repl() {
	fmt.Println("命令: /send <id> <msg> | /open <id> | /close | /unread | /quit")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !s.dispatch(line) {
			break
		}
		fmt.Print("> ")
	}

	close(s.done)
	if ch := s.current(); ch != nil {
		ch.Close()
	}
}

// dispatch 处理一条命令，返回 false 表示退出
func (s *chatClient) dispatch(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return false

	case "/send":
		if len(fields) < 3 {
			fmt.Println("用法: /send <id> <msg>")
			return true
		}
		receiverID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			fmt.Println("接收方 id 无效")
			return true
		}
		ch := s.current()
		if ch == nil {
			fmt.Println("尚未连接")
			return true
		}
		if err := ch.Send(receiverID, strings.Join(fields[2:], " ")); err != nil {
			fmt.Println("发送失败:", err)
		}

	case "/open":
		if len(fields) != 2 {
			fmt.Println("用法: /open <id>")
			return true
		}
		otherID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			fmt.Println("会话 id 无效")
			return true
		}
		s.openConversation(otherID)

	case "/close":
		s.closeConversation()

	case "/unread":
		fmt.Printf("未读合计 %d\n", s.notifier.TotalUnread())
		for otherID, count := range s.notifier.Snapshot() {
			fmt.Printf("  与 %d: %d\n", otherID, count)
		}

	default:
		fmt.Println("未知命令:", fields[0])
	}
	return true
}

// openConversation 进入会话页：本地抑制 + 服务端在线信号 + 未读清零
func (s *chatClient) openConversation(otherID uint64) {
	s.filter.SetOpenConversation(otherID)
	if _, err := s.rest.R().Post(fmt.Sprintf("/api/presence/viewing/%d", otherID)); err != nil {
		log.Warn("查看状态上报失败", "otherId", otherID, "err", err)
	}
	if err := s.notifier.MarkConversationRead(context.Background(), otherID); err != nil {
		log.Warn("已读上报失败", "otherId", otherID, "err", err)
	}
	fmt.Printf("已进入与 %d 的会话，未读合计 %d\n", otherID, s.notifier.TotalUnread())
}

func (s *chatClient) closeConversation() {
	otherID := s.filter.OpenConversation()
	s.filter.ClearOpenConversation()
	if otherID != 0 {
		if _, err := s.rest.R().Delete(fmt.Sprintf("/api/presence/viewing/%d", otherID)); err != nil {
			log.Warn("查看状态清除失败", "otherId", otherID, "err", err)
		}
	}
	fmt.Println("已离开会话页")
}
