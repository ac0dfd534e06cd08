package sh

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/scarabworks/scarab.go/pkg/link"
)

// Shell provides ishell backed interactive console over a panel link.
type Shell struct {
	Interactive bool
	AutoConnect bool

	Shell   *ishell.Shell
	Address string
	Session *Session
}

// Session is a live link to a panel with a background reply reader.
type Session struct {
	Address string
	Stream  link.Stream

	replies chan string
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	// ReplyTimeout bounds the wait for a single response line.
	ReplyTimeout = 2 * time.Second
)

var (
	// flags

	evalOnly    bool
	connectAddr string

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	if val := os.Getenv("SCARAB_CONNECT"); val != "" {
		connectAddr = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.StringVar(&connectAddr, "connect", connectAddr, "Panel address: tcp://addr or ws://addr.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(addr string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,

		Shell:   ishell.New(),
		Address: addr,
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
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect dials the panel at addr.
func (s *Shell) Connect(addr string) error {
	stream, err := link.Dial(addr)
	if err != nil {
		return err
	}
	sess := &Session{
		Address: addr,
		Stream:  stream,
		replies: make(chan string, 16),
	}
	go sess.readReplies()
	if s.Session != nil {
		s.Session.Stream.Close()
	}
	s.Session = sess
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", addr))
	return nil
}

// Disconnect drops the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Stream.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (sess *Session) readReplies() {
	scanner := bufio.NewScanner(sess.Stream)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		sess.replies <- line
	}
	close(sess.replies)
}

// Send writes one command line without waiting for a response.
func (sess *Session) Send(line string) error {
	_, err := sess.Stream.Write([]byte(line + "\n"))
	return err
}

// Reply waits for the next response line.
func (sess *Session) Reply() (string, error) {
	select {
	case line, ok := <-sess.replies:
		if !ok {
			return "", fmt.Errorf("connection closed")
		}
		return line, nil
	case <-time.After(ReplyTimeout):
		return "", fmt.Errorf("response timeout")
	}
}

// Query sends one command line and waits for a single response line.
func (sess *Session) Query(line string) (string, error) {
	if err := sess.Send(line); err != nil {
		return "", err
	}
	return sess.Reply()
}

// Send writes a command line on the current session and reports
// errors into the ishell context.
func Send(c *ishell.Context, line string) error {
	sess := ShellFrom(c).Session
	if err := sess.Send(line); err != nil {
		c.Err(err)
		return err
	}
	return nil
}

// Query sends a command line, waits for the response and prints it.
func Query(c *ishell.Context, line string) (string, error) {
	sess := ShellFrom(c).Session
	res, err := sess.Query(line)
	if err != nil {
		c.Err(err)
		return "", err
	}
	c.Println(res)
	return res, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Address != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Address)
		}
		if err := s.Connect(s.Address); err != nil {
			log.Fatalf("connect %q failed: %v", s.Address, err)
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
	// ConnectCmd connects a panel.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ADDRESS]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			addr := s.Address
			if len(c.Args) > 0 {
				addr = c.Args[0]
			}
			if addr == "" {
				c.Err(fmt.Errorf("address expected"))
				return
			}
			if err := s.Connect(addr); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current panel.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(connectAddr).WithAutoConnect(true).Run(flag.Args()...)
}
