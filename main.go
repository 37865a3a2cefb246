// SPDX-License-Identifier: MPL-2.0

package main

import cmd "javaup-cli/cmd/javaup"

func main() {
	cmd.Execute()
}
