package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/laserctl/pkg/framework"
	"github.com/robotalks/laserctl/pkg/l0/client"
	"github.com/robotalks/laserctl/pkg/l0/port"
	"github.com/robotalks/laserctl/pkg/l0/status"
	"github.com/robotalks/laserctl/pkg/l1"
	"github.com/robotalks/laserctl/pkg/l1/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Link   *Link
}

// Link is an open command link to a controller.
type Link struct {
	Ctx    context.Context
	Cancel func()
	Target string
	Client *client.Client
	Banner *client.Banner
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(client.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info l1.DeviceInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Variant != "" {
		fmt.Fprintf(&w, " [%s]", info.Meta.Variant)
	}
	if info.Meta.Link != "" {
		fmt.Fprintf(&w, " %s", info.Meta.Link)
	}
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FormatLines formats status lines for display.
func FormatLines(lines []status.Line, asJSON bool) (string, error) {
	if asJSON {
		if lines == nil {
			lines = []status.Line{}
		}
		out, err := json.Marshal(lines)
		return string(out), err
	}
	var w bytes.Buffer
	for n, l := range lines {
		if n > 0 {
			w.WriteByte('\n')
		}
		w.WriteString(l.String())
	}
	return w.String(), nil
}

// DoCommand sends a command line and waits for the result. extra extends
// the reply timeout, e.g. for the fire hold.
func DoCommand(c *ishell.Context, cmdLine string, extra time.Duration) error {
	s := ShellFrom(c)
	if s.Link == nil {
		c.Err(client.ErrNotConnected)
		return client.ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(s.Link.Ctx, s.Config.Timeout+extra)
	defer cancel()
	lines, err := s.Link.Client.Exec(ctx, cmdLine)
	if err == context.DeadlineExceeded {
		err = fmt.Errorf("command timeout")
	}
	if out, ferr := FormatLines(lines, s.OutputJSON); ferr == nil && out != "" {
		c.Println(out)
	}
	if err != nil {
		if _, ok := err.(*client.CommandError); !ok {
			c.Err(err)
		}
	}
	return err
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverControllers discovers controllers publishing telemetry.
func (s *Shell) DiscoverControllers(filter func(l1.DeviceInfo) bool) ([]l1.DeviceInfo, error) {
	infoList, err := mqtt.Discover(context.TODO(), s.Config.RegistryURL, 0)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		items := make([]l1.DeviceInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return infoList, nil
}

// SelectController discovers controllers and asks for a choice.
func (s *Shell) SelectController(filter func(l1.DeviceInfo) bool) (*l1.DeviceInfo, error) {
	infoList, err := s.DiscoverControllers(filter)
	if err != nil {
		return nil, err
	}
	if len(infoList) == 0 {
		return nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 controllers discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}
	return &infoList[index], nil
}

// Connect opens a link to target, a serial device or websocket URL.
func (s *Shell) Connect(target string) error {
	conn, err := client.Dial(target, s.Config.Baud)
	if err != nil {
		return err
	}
	link := &Link{Target: target, Client: client.New(conn)}
	link.Ctx, link.Cancel = context.WithCancel(context.Background())
	if s.Link != nil {
		s.Link.Cancel()
	}
	s.Link = link
	fx.NewRunnerWith(link.Ctx).Go(fx.NamedRun("link", link.Client), fx.RunFunc(func(ctx context.Context) error {
		s.printEvents(ctx, link)
		return nil
	}))
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", target))
	return nil
}

// Disconnect closes current link.
func (s *Shell) Disconnect() {
	if s.Link != nil {
		s.Link.Cancel()
		s.Link = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) printEvents(ctx context.Context, link *Link) {
	for {
		select {
		case <-ctx.Done():
			return
		case l := <-link.Client.EventChan():
			if l.Code == status.CodeBanner {
				s.checkBanner(link, l)
			}
			if s.Interactive {
				s.Shell.Println(l.String())
			}
		}
	}
}

func (s *Shell) checkBanner(link *Link, l status.Line) {
	banner, err := client.ParseBanner(l)
	if err != nil {
		s.Shell.Println(err.Error())
		return
	}
	link.Banner = banner
	if s.Config.Require == "" {
		return
	}
	if err := banner.Check(s.Config.Require); err != nil {
		s.Shell.Printf("WARNING: %v\n", err)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Target != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Target)
		}
		if err := s.Connect(s.Config.Target); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Target, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list controllers publishing telemetry",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.DiscoverControllers(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					infoList = []l1.DeviceInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No controllers found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial devices",
		Func: func(c *ishell.Context) {
			names, err := port.ListSerial()
			if err != nil {
				c.Err(err)
				return
			}
			for _, name := range names {
				c.Println(name)
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "DEVICE|URL or TYPE ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var target string
			if len(c.Args) == 1 {
				target = c.Args[0]
			} else {
				var filter func(l1.DeviceInfo) bool
				if len(c.Args) >= 2 {
					ref := l1.DeviceRef{Type: c.Args[0], ID: c.Args[1]}
					filter = func(info l1.DeviceInfo) bool {
						return info.Ref == ref
					}
				}
				info, err := s.SelectController(filter)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no controller discovered"))
					return
				}
				if info.Meta.Link == "" {
					c.Err(fmt.Errorf("%s has no reachable link", info.Ref.Name()))
					return
				}
				target = info.Meta.Link
			}
			if err := s.Connect(target); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes current link.
	DisconnectCmd = ishell.Cmd{
		Name: "disconnect",
		Help: "close current link",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	if err := EnvError(); err != nil {
		log.Fatalln(err)
	}
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
