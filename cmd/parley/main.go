/*
Package main is the entry point for parley, the terminal chat client.

It is a thin presentation layer over the conversation engine: it renders
reconciled views as lines on stdout and forwards user intents (send message,
add member, create chat) to the engine. Subcommands handle the session
lifecycle: login, signup, logout.
*/
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"parley/internal/app/api"
	"parley/internal/app/chat"
	"parley/internal/app/session"
	"parley/internal/configs"
	"parley/internal/pkg/errs"
	"parley/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")

	sess := session.NewStore(cfg.CredentialFile, cfg.SessionTTL)
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, sess)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "login":
		err = runLogin(ctx, client, sess)
	case "signup":
		err = runSignup(ctx, client, sess)
	case "logout":
		err = sess.Clear()
		if err == nil {
			fmt.Println("Logged out.")
		}
	case "":
		err = runChat(ctx, cfg, client, sess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q; available: login, signup, logout\n", command)
		os.Exit(2)
	}

	if err != nil {
		if errs.IsAuthentication(err) {
			fmt.Fprintln(os.Stderr, "You are not logged in. Run: parley login")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runLogin(ctx context.Context, client *api.Client, sess *session.Store) error {
	email := prompt("Email: ")
	password := prompt("Password: ")

	token, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := sess.Set(token); err != nil {
		return err
	}

	fmt.Println("Login successful.")
	return nil
}

func runSignup(ctx context.Context, client *api.Client, sess *session.Store) error {
	name := prompt("Name: ")
	email := prompt("Email: ")
	password := prompt("Password: ")
	avatarPath := prompt("Avatar image path (optional): ")

	avatarURL := ""
	if avatarPath != "" {
		f, err := os.Open(avatarPath)
		if err != nil {
			return fmt.Errorf("cannot read avatar image: %w", err)
		}
		defer f.Close()

		avatarURL, err = client.UploadAvatar(ctx, filepath.Base(avatarPath), f)
		if err != nil {
			return err
		}
	}

	token, err := client.Signup(ctx, name, email, password, avatarURL)
	if err != nil {
		return err
	}
	if err := sess.Set(token); err != nil {
		return err
	}

	fmt.Println("Signup successful.")
	return nil
}

// runChat is the interactive loop: a roster poller plus at most one open
// conversation at a time, each torn down by canceling its context.
func runChat(ctx context.Context, cfg *configs.ClientConfig, client *api.Client, sess *session.Store) error {
	self, err := sess.ResolveIdentity(ctx, client)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (#%d)\n", self.Name, self.ID)

	engineCfg := chat.EngineConfig{
		PollInterval: cfg.PollInterval,
		PollRate:     cfg.PollRate,
		PollBurst:    cfg.PollBurst,
	}

	roster := chat.NewRoster(client, self.ID, engineCfg)
	go roster.Run(ctx)

	fmt.Println("Commands: /chats, /open <chatId>, /new <userId...>, /add <userId>, /retry <ref>, /discard <ref>, /quit")

	var convCancel context.CancelFunc
	var conv *chat.Conversation

	openConversation := func(chatID int64) {
		if convCancel != nil {
			convCancel()
		}
		convCtx, cancel := context.WithCancel(ctx)
		convCancel = cancel

		conv = chat.NewConversation(client, chatID, self, engineCfg)
		go conv.Run(convCtx)
		go renderConversation(convCtx, self, conv)
		fmt.Printf("-- opened chat #%d --\n", chatID)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			if conv == nil {
				fmt.Println("No chat open. Use /open <chatId> first.")
				continue
			}
			if err := conv.Send(line); err != nil {
				fmt.Printf("!! %v\n", err)
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit":
			return nil

		case "/chats":
			for _, c := range roster.Latest() {
				names := make([]string, 0, len(c.Users))
				for _, u := range c.Users {
					if u.ID != self.ID {
						names = append(names, u.Name)
					}
				}
				fmt.Printf("  #%d  %s\n", c.ID, strings.Join(names, ", "))
			}

		case "/open":
			id, ok := parseID(fields, 1)
			if !ok {
				fmt.Println("usage: /open <chatId>")
				continue
			}
			openConversation(id)

		case "/new":
			if len(fields) < 2 {
				fmt.Println("usage: /new <userId...>")
				continue
			}
			var ids []int64
			for _, raw := range fields[1:] {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					ids = nil
					break
				}
				ids = append(ids, id)
			}
			if ids == nil {
				fmt.Println("usage: /new <userId...>")
				continue
			}
			created, err := roster.CreateChat(ctx, ids...)
			if err != nil {
				fmt.Printf("!! %v\n", err)
				continue
			}
			openConversation(created.ID)

		case "/add":
			id, ok := parseID(fields, 1)
			if !ok || conv == nil {
				fmt.Println("usage: /add <userId> (with a chat open)")
				continue
			}
			if err := conv.AddMember(ctx, id); err != nil {
				fmt.Printf("!! %v\n", err)
			}

		case "/retry":
			if len(fields) < 2 || conv == nil {
				fmt.Println("usage: /retry <ref> (with a chat open)")
				continue
			}
			if err := conv.Retry(fields[1]); err != nil {
				fmt.Printf("!! %v\n", err)
			}

		case "/discard":
			if len(fields) < 2 || conv == nil {
				fmt.Println("usage: /discard <ref> (with a chat open)")
				continue
			}
			conv.Discard(fields[1])

		default:
			fmt.Printf("unknown command %s\n", fields[0])
		}
	}

	return scanner.Err()
}

func parseID(fields []string, idx int) (int64, bool) {
	if len(fields) <= idx {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[idx], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// renderConversation prints each view's messages that were not shown yet.
// Pending sends are marked, failed ones print their retry reference.
func renderConversation(ctx context.Context, self chat.User, conv *chat.Conversation) {
	shown := make(map[string]struct{})

	nameOf := func(view chat.View, id int64) string {
		for _, u := range view.Users {
			if u.ID == id {
				return u.Name
			}
		}
		return fmt.Sprintf("user#%d", id)
	}

	for view := range conv.Updates() {
		if view.Err != nil {
			fmt.Printf("-- connection trouble, retrying: %v --\n", view.Err)
			continue
		}

		for _, msg := range view.Messages {
			key := messageKey(msg)
			if _, ok := shown[key]; ok {
				continue
			}
			shown[key] = struct{}{}

			switch msg.Delivery {
			case chat.DeliveryPending:
				fmt.Printf("[%s] %s (sending...)\n", nameOf(view, msg.SenderID), msg.Body)
			case chat.DeliveryFailed:
				fmt.Printf("[%s] %s (FAILED - /retry %s or /discard %s)\n",
					nameOf(view, msg.SenderID), msg.Body, msg.CorrelationID, msg.CorrelationID)
			default:
				fmt.Printf("[%s] %s\n", nameOf(view, msg.SenderID), msg.Body)
			}
		}
	}
}

// messageKey identifies a rendered message across views: confirmed entries by
// server id, optimistic ones by correlation id and state.
func messageKey(msg chat.Message) string {
	if msg.Delivery == chat.DeliveryConfirmed {
		return "s" + strconv.FormatInt(msg.ID, 10)
	}
	return "c" + msg.CorrelationID + ":" + strconv.Itoa(int(msg.Delivery))
}
