package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dougsko/micro26/pkg/client"
)

var (
	socketPath = flag.String("socket", "/tmp/micro26.sock", "Unix socket path")
	command    = flag.String("cmd", "", "Command to send (e.g., 'STATUS', 'TUNE:+500')")
)

func main() {
	flag.Parse()

	if *socketPath == "" {
		fmt.Fprintf(os.Stderr, "Socket path is required\n")
		os.Exit(1)
	}

	if *command == "" {
		if len(flag.Args()) > 0 {
			*command = strings.Join(flag.Args(), " ")
		} else {
			showHelp()
			return
		}
	}

	client := client.NewSocketClient(*socketPath)

	response, err := client.SendCommand(*command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", response.String())
	if !response.Success {
		os.Exit(2)
	}
}

func showHelp() {
	fmt.Println("vfoctl - micro26 radio control tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command>\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -socket <path>    Unix socket path (default: /tmp/micro26.sock)")
	fmt.Println("  -cmd <command>    Command to send")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  STATUS                    Get radio state")
	fmt.Println("  FREQUENCY                 Get active VFO frequency")
	fmt.Println("  FREQUENCY:<hz>            Tune active VFO (must be in band)")
	fmt.Println("  TUNE:<+/-hz>              Move active VFO")
	fmt.Println("  SIDEBAND:<usb|lsb>        Select sideband")
	fmt.Println("  KEY:<select|back|long>    Press a front panel key")
	fmt.Println("  MEMORIES                  List memory slots")
	fmt.Println("  PING                      Test connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s STATUS\n", os.Args[0])
	fmt.Printf("  %s TUNE:+500\n", os.Args[0])
	fmt.Printf("  %s KEY:back\n", os.Args[0])
	fmt.Printf("  echo 'STATUS' | nc -U /tmp/micro26.sock\n")
}
