// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// setdemo exercises set.Set through a small scripted scenario: seeding a
// set of fruit names, attempting a duplicate insert, looking elements up,
// and erasing one.
package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/cockroachdb/unordered/set"
)

func printAll[K comparable](s *set.Set[K]) {
	s.All(func(k K) bool {
		pterm.Println(fmt.Sprintf("  %v", k))
		return true
	})
}

func main() {
	fruits := set.Of("apple", "banana", "cherry")

	pterm.DefaultSection.Println("Initial set")
	printAll(fruits)

	if _, inserted := fruits.Insert("mango"); inserted {
		pterm.Info.Println("inserted mango")
	}
	if _, inserted := fruits.Insert("banana"); !inserted {
		pterm.Info.Println("banana already present, not inserted")
	}

	pterm.DefaultSection.Println("After inserts")
	printAll(fruits)

	if it := fruits.Find("banana"); it.Valid() {
		pterm.Info.Println("found banana")
	} else {
		pterm.Error.Println("banana missing")
	}
	pterm.Info.Println(fmt.Sprintf("count of apple: %d", fruits.Count("apple")))
	pterm.Info.Println(fmt.Sprintf("count of pear: %d", fruits.Count("pear")))

	removed := fruits.Erase("apple")
	pterm.DefaultSection.Println(fmt.Sprintf("After erase(apple), removed %d", removed))
	printAll(fruits)

	pterm.Info.Println(fmt.Sprintf("empty: %t, size: %d", fruits.Empty(), fruits.Len()))
}
