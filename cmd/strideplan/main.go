// strideplan runs the weekly savings planner against a scenario file, without a database.
package main

func main() {
	Execute()
}
