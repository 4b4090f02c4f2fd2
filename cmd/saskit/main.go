// saskit is the command-line front end for the SAS task toolkit:
// it runs XMM-Newton SAS tasks with canonical argument handling,
// inspects parameter schemas, drives per-observation calibration and
// reduction pipelines, and serves the same operations over MCP.
package main

func main() {
	execute()
}
