// Package contactsync keeps a client side, incrementally loaded list of records consistent
// with server state.
//
// An Accumulator owns the ordered, deduplicated records loaded so far for one query
// Signature. Every reset mints a new generation; fetch completions carry the generation they
// were issued under and completions from a superseded generation are dropped on arrival, so a
// reset never has to cancel a fetch in flight. Within a generation at most one fetch is in
// flight.
//
// A ScrollTrigger turns sentinel visibility into LoadNext calls and a MutationHandler turns
// bulk mutation outcomes (contact uploads) into resets.
package contactsync
