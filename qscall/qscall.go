package main

/*
* CLI to call methods on a qs server
 */

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/op/go-logging"
	"github.com/urfave/cli"
	"github.com/youtube/vitess/go/ioutil2"

	"quantron.io/qs"
	"quantron.io/qs/core"
)

var rawType = reflect.TypeOf(json.RawMessage{})

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

func PrintFatal(msg string, args ...interface{}) {
	io.WriteString(stderr, qs.Red(fmt.Sprintf(msg, args...))+"\n")
	exit(1)
}

//	fatalError prints err verbatim; server messages may contain verbs.
func fatalError(err error) {
	PrintFatal("%s", describeError(err))
}

func configFromContext(c *cli.Context) (config qs.Config, err error) {
	config, err = qs.LoadConfig(c.GlobalString("config"))
	if err != nil {
		return
	}
	if url := c.GlobalString("url"); url != "" {
		config.ServerURL = url
	}
	if cert := c.GlobalString("cert"); cert != "" {
		config.Certificate = cert
	}
	if c.GlobalBool("envelope") {
		config.Envelope = true
	}
	if timeout := c.GlobalDuration("timeout"); timeout > 0 {
		config.Timeout = timeout
	}
	err = config.Validate()
	return
}

func newCore(c *cli.Context) (*core.Core, error) {
	config, err := configFromContext(c)
	if err != nil {
		return nil, err
	}
	level := logging.WARNING
	if c.GlobalBool("verbose") {
		level = logging.DEBUG
	}
	log := qs.SetupLogging("qscall", level, false)
	client, err := core.New(config, core.Options{Log: log})
	if err != nil {
		return nil, err
	}
	if _, err = client.Use(core.NewLogStage(log)); err != nil {
		return nil, err
	}
	return client, nil
}

//	requestArg is the optional JSON request after the method name.
func requestArg(c *cli.Context) (request json.RawMessage, err error) {
	raw := strings.TrimSpace(c.Args().Get(1))
	if raw == "" {
		request = json.RawMessage("{}")
		return
	}
	if !json.Valid([]byte(raw)) {
		err = fmt.Errorf("request is not valid JSON: %s", raw)
		return
	}
	request = json.RawMessage(raw)
	return
}

//	parseFileFlags turns name=path pairs into attachments.
func parseFileFlags(values []string) (attachments []qs.Attachment, err error) {
	for _, value := range values {
		parts := strings.SplitN(value, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			err = fmt.Errorf("--file expects name=path, got %q", value)
			return
		}
		var data []byte
		data, err = os.ReadFile(parts[1])
		if err != nil {
			return
		}
		attachments = append(attachments, qs.NewAttachment(parts[0], filepath.Base(parts[1]), mimeTypeOf(parts[1]), data))
	}
	return
}

func mimeTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".json":
		return qs.MIME_JSON
	case ".txt":
		return "text/plain"
	}
	return ""
}

func describeError(err error) string {
	switch qs.Kind(err) {
	case "server":
		return qs.Red("server error: ") + err.Error()
	case "transport":
		return qs.Red("network error: ") + err.Error()
	case "decode":
		return qs.Yellow("unexpected response: ") + err.Error()
	case "abort":
		return qs.Yellow("aborted: ") + err.Error()
	case "cancelled":
		return qs.Yellow("timed out")
	}
	return qs.Red(err.Error())
}

func indent(raw []byte) []byte {
	var out bytes.Buffer
	if json.Indent(&out, raw, "", "  ") != nil {
		return raw
	}
	return out.Bytes()
}

func run(c *cli.Context, options ...core.MethodOption) (err error) {
	name := c.Args().First()
	if name == "" {
		PrintFatal("method name required")
	}
	var request json.RawMessage
	if c.Command.Name != "get" {
		request, err = requestArg(c)
		if err != nil {
			PrintFatal("%s", err)
		}
	}
	client, err := newCore(c)
	if err != nil {
		PrintFatal("%s", err)
	}

	ctx := context.Background()
	if timeout := c.GlobalDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout+time.Second)
		defer cancel()
	}
	method := core.NewMethod(name, request, rawType, nil, options...)
	result, err := core.Call(ctx, client, method)
	if err != nil {
		fatalError(err)
	}
	output := indent(*result.(*json.RawMessage))

	if out := c.String("out"); out != "" {
		if err = ioutil2.WriteFileAtomic(out, append(output, '\n'), 0600); err != nil {
			PrintFatal("%s", err)
		}
		fmt.Println(qs.Green("Wrote " + out))
	} else {
		fmt.Println(qs.Cyan(string(output)))
	}
	if c.Bool("copy") {
		if err = clipboard.WriteAll(string(output)); err != nil {
			PrintFatal("%s", err)
		}
		fmt.Println(qs.Green("Copied result to clipboard."))
	}
	return
}

func callCommand(c *cli.Context) (err error) {
	return run(c)
}

func getCommand(c *cli.Context) (err error) {
	return run(c, core.GET())
}

func uploadCommand(c *cli.Context) (err error) {
	attachments, err := parseFileFlags(c.StringSlice("file"))
	if err != nil {
		PrintFatal("%s", err)
	}
	if len(attachments) == 0 {
		PrintFatal("at least one --file name=path is required")
	}
	return run(c, core.WithAttachments(attachments...))
}

func versionCommand(c *cli.Context) (err error) {
	fmt.Println("qscall", qs.CURRENT_VERSION.String())
	return
}

var outputFlags = []cli.Flag{
	cli.BoolFlag{Name: "copy", Usage: "copy the result to the clipboard"},
	cli.StringFlag{Name: "out", Usage: "write the result to `FILE`"},
}

func main() {
	app := cli.NewApp()
	app.Name = "qscall"
	app.Usage = "call methods on a qs server"
	app.Version = qs.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "url", Usage: "server base `URL`", EnvVar: qs.ENV_SERVER_URL},
		cli.StringFlag{Name: "config", Usage: "YAML config `FILE`", EnvVar: qs.ENV_CONFIG},
		cli.StringFlag{Name: "cert", Usage: "certificate bundle (PEM or PKCS#12)"},
		cli.BoolFlag{Name: "envelope", Usage: "responses use the result/status envelope"},
		cli.DurationFlag{Name: "timeout", Usage: "request timeout"},
		cli.BoolFlag{Name: "verbose, v"},
	}
	app.Commands = []cli.Command{
		cli.Command{
			Name:      "call",
			Aliases:   []string{"c"},
			Usage:     "POST a method",
			ArgsUsage: "<method> [json]",
			Flags:     outputFlags,
			Action:    callCommand,
		},
		cli.Command{
			Name:      "get",
			Usage:     "GET a method",
			ArgsUsage: "<method>",
			Flags:     outputFlags,
			Action:    getCommand,
		},
		cli.Command{
			Name:      "upload",
			Usage:     "POST a method with attachments",
			ArgsUsage: "<method> [json]",
			Flags: append([]cli.Flag{
				cli.StringSliceFlag{Name: "file", Usage: "attachment as `name=path`, repeatable"},
			}, outputFlags...),
			Action: uploadCommand,
		},
		cli.Command{
			Name:   "version",
			Action: versionCommand,
		},
	}
	app.Run(os.Args)
}
