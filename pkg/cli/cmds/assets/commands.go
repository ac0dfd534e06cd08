package assets

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/scarabworks/scarab.go/pkg/assets"
	"github.com/scarabworks/scarab.go/pkg/cli/sh"
)

// UploadChunkSize is the number of raw bytes carried per IMG_DATA
// line. Hex-encoded with the command prefix it stays comfortably
// inside the device's line buffer.
const UploadChunkSize = 512

func parseSlot(arg string) (assets.Slot, error) {
	names := map[string]assets.Slot{
		"cpu": assets.SlotCPU,
		"gpu": assets.SlotGPU,
		"ram": assets.SlotRAM,
		"net": assets.SlotNet,
	}
	if slot, ok := names[strings.ToLower(arg)]; ok {
		return slot, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || !assets.Slot(n).Valid() {
		return 0, fmt.Errorf("invalid slot %q", arg)
	}
	return assets.Slot(n), nil
}

func expect(c *ishell.Context, sess *sh.Session, line, wantPrefix string) (string, error) {
	res, err := sess.Query(line)
	if err != nil {
		c.Err(err)
		return "", err
	}
	if !strings.HasPrefix(res, wantPrefix) {
		err = fmt.Errorf("unexpected response: %s", res)
		c.Err(err)
		return "", err
	}
	return res, nil
}

func upload(c *ishell.Context, slot assets.Slot, data []byte) error {
	sess := sh.ShellFrom(c).Session
	if _, err := expect(c, sess,
		fmt.Sprintf("IMG_BEGIN:%d:%d", int(slot), len(data)), "IMG_OK:BEGIN"); err != nil {
		return err
	}
	for off := 0; off < len(data); off += UploadChunkSize {
		end := off + UploadChunkSize
		if end > len(data) {
			end = len(data)
		}
		line := fmt.Sprintf("IMG_DATA:%d:%s", off, hex.EncodeToString(data[off:end]))
		if _, err := expect(c, sess, line, "IMG_OK:DATA"); err != nil {
			return err
		}
	}
	crc := crc32.ChecksumIEEE(data)
	res, err := expect(c, sess, fmt.Sprintf("IMG_END:%08X", crc), "IMG_OK:COMPLETE")
	if err != nil {
		return err
	}
	c.Println(res)
	return nil
}

var (
	// UploadCmd uploads an image file into a slot.
	UploadCmd = ishell.Cmd{
		Name:    "upload",
		Aliases: []string{"up"},
		Help:    "SLOT FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("slot and file expected"))
				return
			}
			slot, err := parseSlot(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			data, err := os.ReadFile(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			upload(c, slot, data)
		}),
	}

	// DeleteCmd removes a slot's custom image.
	DeleteCmd = ishell.Cmd{
		Name:    "delete",
		Aliases: []string{"del"},
		Help:    "SLOT",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("slot expected"))
				return
			}
			slot, err := parseSlot(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.Query(c, fmt.Sprintf("IMG_DELETE:%d", int(slot)))
		}),
	}

	// AbortCmd cancels an in-flight upload.
	AbortCmd = ishell.Cmd{
		Name: "abort",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Query(c, "IMG_ABORT")
		}),
	}

	// StatusCmd reports the transfer session and slot states.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sess := sh.ShellFrom(c).Session
			if err := sess.Send("IMG_STATUS"); err != nil {
				c.Err(err)
				return
			}
			for i := 0; i < 1+int(assets.SlotCount); i++ {
				line, err := sess.Reply()
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(line)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&UploadCmd,
		&DeleteCmd,
		&AbortCmd,
		&StatusCmd,
	)
}
