/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package utils

// OrderedSet is a set that remembers the order in which values were first added.
type OrderedSet[T comparable] struct {
	index  map[T]int
	values []T
}

func NewOrderedSet[T comparable](values ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]int)}
	s.Add(values...)
	return s
}

// Add inserts the values that are not in the set yet and reports how many were new.
func (s *OrderedSet[T]) Add(values ...T) int {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	added := 0
	for _, v := range values {
		if _, exist := s.index[v]; exist {
			continue
		}
		s.index[v] = len(s.values)
		s.values = append(s.values, v)
		added++
	}
	return added
}

func (s *OrderedSet[T]) Union(other *OrderedSet[T]) int {
	if other == nil {
		return 0
	}
	return s.Add(other.values...)
}

func (s *OrderedSet[T]) Contains(v T) bool {
	_, exist := s.index[v]
	return exist
}

func (s *OrderedSet[T]) Len() int {
	return len(s.values)
}

// Values returns a copy of the elements in insertion order.
func (s *OrderedSet[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}
