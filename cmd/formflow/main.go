// Command formflow runs, serves and checks chat-style form flows.
package main

func main() {
	Execute()
}
