// Command taskflow manages tasks stored in the hosted backend and raises
// due-date notifications for them.
package main

func main() {
	Execute()
}
