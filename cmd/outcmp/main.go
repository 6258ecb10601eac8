// Package main provides the outcmp command line tool.
//
// outcmp decides whether a program's output matches the expected output
// under a set of increasingly lenient comparison strategies.
//
// Usage:
//
//	outcmp compare --submitted got.txt --expected want.txt
//	outcmp grade suite.yaml --outputs ./outputs
//	outcmp modes
package main

func main() {
	Execute()
}
