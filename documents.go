/*
Copyright 2024 Carnet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package carnet

import (
	"context"

	"github.com/carnetapp/carnet/model"
)

// DocumentRenderer produces the local receipt snapshot stored alongside an
// offline order, so the representative can hand the client a document
// before the server ever sees the order. Rendering is best-effort: a
// failure is logged and the submission proceeds without a snapshot.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, order *model.Order) ([]byte, error)
}

// RendererFunc adapts a function to the DocumentRenderer interface.
type RendererFunc func(ctx context.Context, order *model.Order) ([]byte, error)

func (f RendererFunc) RenderPDF(ctx context.Context, order *model.Order) ([]byte, error) {
	return f(ctx, order)
}
