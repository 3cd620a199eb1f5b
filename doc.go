// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package dson implements a reader and a writer for Dson text.
//
// Dson is a self-describing document format that extends JSON with sized
// integers and floats, binary data, timestamps, date-times, object pointers,
// and headers that attach metadata to objects and arrays. Keys and strings
// may be unquoted, and comments run from // to the end of the line:
//
//	@{Inventory}
//	{
//	  name: widgets, // a comment
//	  count: 12, weight: @f 1.5,
//	  big: 4294967296,
//	  tags: [@{compClsName: s} red, green, "light blue"],
//	  seen: @ts 1700000000123ms,
//	  blob: @bin 00ff10,
//	  note: @"""
//	        @- first line
//	        @| second line
//	        @"""
//	}
//
// # Scanning
//
// The Scanner type splits input into tokens. Construct a scanner from a
// [charstream.Stream] and call NextToken until it reports EOF:
//
//	s := dson.NewScanner(charstream.NewString(input))
//	defer s.Close()
//	for {
//	   tok, err := s.NextToken(false)
//	   if err != nil {
//	      log.Fatalf("Scan failed: %v", err)
//	   } else if tok.Type == dson.EOF {
//	      break
//	   }
//	   log.Printf("Next token: %v", tok)
//	}
//
// # Reading
//
// The Reader type reports the values of the input one at a time. Call
// ReadDsonType to advance to the next value, ReadName to consume its name
// inside an object or header, and then the read method matching its type:
//
//	r := dson.NewStringReader(`{a: 1, b: "x"}`, nil)
//	defer r.Close()
//	t, err := r.ReadDsonType()     // dson.Object
//	err = r.ReadStartObject()
//	t, err = r.ReadDsonType()      // dson.Int32
//	name, err := r.ReadName()      // "a"
//	v, err := r.ReadInt32()        // 1
//
// At the end of a container, ReadDsonType reports EndOfObject, and the caller
// must call the end method matching the container. PeekDsonType reports the
// next type without consuming it, and SkipValue discards a value without
// decoding its contents. Errors are reported as *SyntaxError values and are
// sticky. Calling a method in the wrong state is a programming error and
// panics.
//
// # Streaming
//
// The Stream type wraps a Reader and delivers the structure of each
// top-level value to the methods of a Handler. In case of error, parsing is
// terminated and the error is returned:
//
//	s := dson.NewStream(input, nil)
//	if err := s.Parse(handler); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//
// # Writing
//
// The Writer type produces formatted text from a sequence of calls that
// mirror the Reader:
//
//	w := dson.NewWriter(os.Stdout, nil)
//	w.WriteStartObject(dson.Indent)
//	w.WriteName("a")
//	w.WriteInt32(1, dson.Simple)
//	w.WriteEndObject()
//	if err := w.Close(); err != nil {
//	   log.Fatalf("Write failed: %v", err)
//	}
//
// The WriterOptions type controls line lengths, indentation, text blocks,
// and escaping. Text written by a Writer reads back as the same sequence of
// values.
package dson
