// Command studio runs image edits and video generations from a terminal
// using the same pipeline as the API.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/providers/genai"
	"github.com/imranraza-AI/Clothing-brand-website/internal/providers/genaisdk"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

const usage = `usage:
  studio edit  -image <file> -prompt <text> [-out <file>]
  studio video [-image <file>] [-prompt <text>] [-aspect 16:9|9:16] [-out <file>]
  studio chat
  studio tip   -product <name>`

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		verbose bool
		err     error
	)
	kind := studio.KindEdit
	stylist := false
	switch os.Args[1] {
	case "edit":
		verbose, err = runEdit(ctx, os.Args[2:])
	case "video":
		kind = studio.KindVideo
		verbose, err = runVideo(ctx, os.Args[2:])
	case "chat":
		stylist = true
		verbose, err = runChat(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "tip":
		stylist = true
		verbose, err = runTip(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		msgs := studio.NewMessages()
		if stylist {
			fmt.Fprintln(os.Stderr, withDetail(msgs.ChatNotice(envLocale(), err), err, verbose))
		} else {
			fmt.Fprintln(os.Stderr, describe(msgs, envLocale(), kind, err, verbose))
		}
		os.Exit(1)
	}
}

// describe renders err as the localized notice. The underlying error is
// only shown in verbose mode.
func describe(msgs *studio.Messages, locale string, kind studio.Kind, err error, verbose bool) string {
	return withDetail(msgs.FromError(locale, kind, err), err, verbose)
}

func withDetail(notice studio.Notice, err error, verbose bool) string {
	if verbose {
		return fmt.Sprintf("%s (%v)", notice.Message, err)
	}
	return notice.Message
}

// envLocale picks the message locale from LC_ALL, LC_MESSAGES or LANG.
func envLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return studio.NewMessages().Locale(posixToBCP47(v))
		}
	}
	return "en"
}

// posixToBCP47 turns "id_ID.UTF-8" into "id-ID".
func posixToBCP47(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return strings.ReplaceAll(v, "_", "-")
}

// geminiProvider serves both media jobs and stylist text.
type geminiProvider interface {
	studio.Provider
	studio.TextProvider
}

type cli struct {
	cfg     *infra.Config
	logger  infra.Logger
	keys    *studio.Keyring
	builder *studio.RequestBuilder
	prov    geminiProvider
}

func setup(verbose bool) (*cli, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewCLILogger(verbose)
	keys := studio.NewKeyring(cfg.GeminiAPIKey)
	opts := genai.Options{
		Keys:       keys,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiImageModel,
		VideoModel: cfg.GeminiVideoModel,
		ChatModel:  cfg.GeminiChatModel,
		TipModel:   cfg.GeminiTipModel,
		Logger:     &logger,
	}
	var prov geminiProvider = genai.NewClient(opts)
	if cfg.GenAIBackend == infra.BackendSDK {
		prov = genaisdk.New(genaisdk.Options{
			Keys:       keys,
			BaseURL:    cfg.GeminiBaseURL,
			ImageModel: cfg.GeminiImageModel,
			VideoModel: cfg.GeminiVideoModel,
			ChatModel:  cfg.GeminiChatModel,
			TipModel:   cfg.GeminiTipModel,
			Logger:     &logger,
		})
	}
	return &cli{
		cfg:    cfg,
		logger: logger,
		keys:   keys,
		builder: studio.NewRequestBuilder(studio.BuilderOptions{
			MaxImageBytes:     cfg.MaxImageBytes,
			MaxImageDimension: cfg.MaxImageDim,
		}),
		prov: prov,
	}, nil
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func runEdit(ctx context.Context, args []string) (bool, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	imagePath := fs.String("image", "", "source image")
	prompt := fs.String("prompt", "", "edit instruction")
	out := fs.String("out", "edited.png", "output file")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	c, err := setup(*verbose)
	if err != nil {
		return *verbose, err
	}
	image, err := readOptional(*imagePath)
	if err != nil {
		return *verbose, err
	}
	req, err := c.builder.BuildEdit(studio.EditInput{Image: image, Prompt: *prompt})
	if err != nil {
		return *verbose, err
	}
	if err := c.ensureKey(ctx); err != nil {
		return *verbose, err
	}

	payload, err := studio.NewEditor(c.prov, nil, &c.logger).EditImage(ctx, req)
	if err != nil {
		return *verbose, err
	}
	if payload == nil {
		fmt.Fprintln(os.Stderr, studio.NewMessages().Notice(envLocale(), studio.CodeNoResult).Message)
		return *verbose, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return *verbose, fmt.Errorf("decode edited image: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return *verbose, err
	}
	fmt.Println(*out)
	return *verbose, nil
}

func runVideo(ctx context.Context, args []string) (bool, error) {
	fs := flag.NewFlagSet("video", flag.ExitOnError)
	imagePath := fs.String("image", "", "optional starting image")
	prompt := fs.String("prompt", "", "video prompt")
	aspect := fs.String("aspect", string(studio.AspectWide), "aspect ratio (16:9 or 9:16)")
	out := fs.String("out", "", "download the video here instead of printing its URI")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	c, err := setup(*verbose)
	if err != nil {
		return *verbose, err
	}
	image, err := readOptional(*imagePath)
	if err != nil {
		return *verbose, err
	}
	req, err := c.builder.BuildVideo(studio.VideoInput{Image: image, Prompt: *prompt, AspectRatio: *aspect})
	if err != nil {
		return *verbose, err
	}

	orch := studio.NewOrchestrator(studio.OrchestratorOptions{
		Provider:        c.prov,
		Keys:            c.keys,
		Gate:            studio.NewGate(newTerminalSelector(c.keys), c.cfg.SelectionTimeout, &c.logger),
		SessionID:       "cli",
		PollInterval:    c.cfg.PollInterval,
		MaxPollDuration: c.cfg.MaxPollDuration,
		Logger:          &c.logger,
	})
	started := time.Now()
	res, err := orch.GenerateVideo(ctx, req, func(state studio.JobState, handle studio.JobHandle) {
		fmt.Fprintf(os.Stderr, "[%s] %s %s\n", time.Since(started).Truncate(time.Second), state, handle)
	})
	if err != nil {
		return *verbose, err
	}
	if *out == "" {
		fmt.Println(res.URI)
		return *verbose, nil
	}
	return *verbose, download(ctx, res.URI, *out)
}

func (c *cli) ensureKey(ctx context.Context) error {
	if selected(ctx, c.keys) {
		return nil
	}
	return newTerminalSelector(c.keys).RequestSelection(ctx)
}

func runTip(ctx context.Context, args []string) (bool, error) {
	fs := flag.NewFlagSet("tip", flag.ExitOnError)
	product := fs.String("product", "", "product name")
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	c, err := setup(*verbose)
	if err != nil {
		return *verbose, err
	}
	if err := c.ensureKey(ctx); err != nil {
		return *verbose, err
	}
	tip, err := studio.NewStylist(studio.StylistOptions{Provider: c.prov, Logger: &c.logger}).StyleTip(ctx, envLocale(), *product)
	if err != nil {
		return *verbose, err
	}
	fmt.Println(tip.Text)
	return *verbose, nil
}

func runChat(ctx context.Context, args []string, in io.Reader, out io.Writer) (bool, error) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	_ = fs.Parse(args)

	c, err := setup(*verbose)
	if err != nil {
		return *verbose, err
	}
	if err := c.ensureKey(ctx); err != nil {
		return *verbose, err
	}
	stylist := studio.NewStylist(studio.StylistOptions{Provider: c.prov, Logger: &c.logger})
	return *verbose, converse(ctx, stylist, envLocale(), in, out)
}

// converse runs a line-oriented stylist chat until EOF or "exit". Failed
// turns print the localized notice and are left out of the history.
func converse(ctx context.Context, stylist *studio.Stylist, locale string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, stylist.Greeting(locale))
	var history []studio.ChatTurn
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		reply, err := stylist.Chat(ctx, history, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, stylist.ChatNotice(locale, err).Message)
			continue
		}
		fmt.Fprintln(out, reply)
		history = append(history,
			studio.ChatTurn{Role: studio.RoleUser, Text: line},
			studio.ChatTurn{Role: studio.RoleModel, Text: reply},
		)
	}
}

func selected(ctx context.Context, keys *studio.Keyring) bool {
	ok, err := keys.IsSelected(ctx)
	return err == nil && ok
}

func download(ctx context.Context, uri, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download video: status %d", resp.StatusCode)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return errors.Join(fmt.Errorf("download video: %w", err), os.Remove(path))
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
