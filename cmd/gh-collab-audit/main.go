// gh-collab-audit reports who can access every repository in a GitHub
// organization, at what permission level, and through which teams.
package main

func main() {
	Execute()
}
