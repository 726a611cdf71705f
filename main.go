// Command crawlkit runs the concurrent crawl coordinator CLI.
package main

import "github.com/avolkov/crawlkit/cmd"

func main() {
	cmd.Execute()
}
