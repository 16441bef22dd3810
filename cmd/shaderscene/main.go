// Command shaderscene serves, validates and renders generated shader
// scenes.
package main

func main() {
	Execute()
}
