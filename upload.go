package frameble

import (
	"fmt"
	"os"

	"github.com/CitizenOneX/frame-ble-go/protocol"
)

// Lua command bytes wrapped around each uploaded chunk: `f:write("");print(nil)`.
const writeOverhead = 22

// UploadFile uploads a local file to the device filesystem. An existing
// target file is overwritten.
func (c *Client) UploadFile(localPath, devicePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("frameble: read %s: %w", localPath, err)
	}
	return c.UploadFileFromString(string(data), devicePath)
}

// UploadFileFromString uploads content as devicePath on the device. An
// existing target file is overwritten. The content is escaped for transport
// and streamed in MTU-sized chunks that never split an escape sequence.
func (c *Client) UploadFileFromString(content, devicePath string) error {
	// Stop any running script before touching its files.
	if err := c.SendBreakSignal(); err != nil {
		return err
	}

	escaped := protocol.EscapeLua(content)

	chunkSize := c.MaxLuaPayload() - writeOverhead
	if chunkSize <= 0 {
		return fmt.Errorf("frameble: negotiated MTU leaves no room for upload chunks")
	}
	chunks, err := protocol.Chunks(escaped, chunkSize)
	if err != nil {
		return err
	}

	open := fmt.Sprintf("f=frame.file.open('%s','w');print(nil)", devicePath)
	if _, err := c.SendLuaWithResponse(open); err != nil {
		return fmt.Errorf("frameble: open %s on device: %w", devicePath, err)
	}

	for chunk := range chunks {
		if _, err := c.SendLuaWithResponse(`f:write("` + chunk + `");print(nil)`); err != nil {
			return fmt.Errorf("frameble: write chunk to %s: %w", devicePath, err)
		}
	}

	if _, err := c.SendLuaWithResponse("f:close();print(nil)"); err != nil {
		return fmt.Errorf("frameble: close %s on device: %w", devicePath, err)
	}
	return nil
}
